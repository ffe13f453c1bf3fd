package submissions

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JaimeStill/addrsplit/internal/address"
	"github.com/JaimeStill/addrsplit/pkg/query"
	"github.com/JaimeStill/addrsplit/pkg/repository"
)

var projection = query.
	NewProjectionMap("public.submissions", "s").
	Project("user_id", "UserID").
	Project("submission_id", "SubmissionID").
	Project("created_at", "CreatedAt").
	Project("expires_at", "ExpiresAt").
	Project("input", "Input").
	Project("results", "Results").
	Project("costs", "Costs").
	Project("provenance", "Provenance").
	Project("preferred_method", "PreferredMethod")

var recency = []query.SortField{
	{Field: "CreatedAt", Descending: true},
	{Field: "SubmissionID", Descending: true},
}

const insertSubmission = `
		INSERT INTO submissions (user_id, submission_id, created_at, expires_at, input, results, costs, provenance, preferred_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const updatePreferred = `
		UPDATE submissions SET preferred_method = $3
		WHERE user_id = $1 AND submission_id = $2 AND expires_at > $4`

const deleteExpired = `DELETE FROM submissions WHERE expires_at <= $1`

// PostgresStore keeps submissions in the submissions table.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostgresStore returns a Store over db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (p *PostgresStore) Put(ctx context.Context, s *address.Submission) error {
	docs, err := encodeColumns(s)
	if err != nil {
		return err
	}

	var preferred any
	if s.PreferredMethod != nil {
		preferred = string(*s.PreferredMethod)
	}

	_, err = repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx, insertSubmission,
			s.UserID, s.SubmissionID, s.CreatedAt, s.ExpiresAt,
			docs.input, docs.results, docs.costs, docs.provenance, preferred,
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

func (p *PostgresStore) Get(ctx context.Context, userID, submissionID string) (*address.Submission, error) {
	q, args := query.NewBuilder(projection).
		WhereEquals("UserID", userID).
		WhereEquals("SubmissionID", submissionID).
		WhereAfter("ExpiresAt", p.now().UTC()).
		BuildSingleOrNull()

	s, err := repository.QueryOne(ctx, p.db, q, args, scanSubmission)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &s, nil
}

func (p *PostgresStore) ListRecent(ctx context.Context, userID string, limit int) ([]address.Submission, error) {
	q, args := query.NewBuilder(projection, recency...).
		WhereEquals("UserID", userID).
		WhereAfter("ExpiresAt", p.now().UTC()).
		BuildLimit(limit)

	subs, err := repository.QueryMany(ctx, p.db, q, args, scanSubmission)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	return subs, nil
}

func (p *PostgresStore) SetPreferred(ctx context.Context, userID, submissionID string, id address.PipelineID) error {
	_, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx, updatePreferred,
			userID, submissionID, string(id), p.now().UTC(),
		)
	})
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return nil
}

// Sweep deletes expired submissions and returns how many were removed.
func (p *PostgresStore) Sweep(ctx context.Context) (int64, error) {
	n, err := repository.ExecCount(ctx, p.db, deleteExpired, p.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("sweep submissions: %w", err)
	}
	return n, nil
}

type columns struct {
	input, results, costs, provenance []byte
}

func encodeColumns(s *address.Submission) (columns, error) {
	var (
		d   columns
		err error
	)
	if d.input, err = json.Marshal(s.Input); err != nil {
		return d, fmt.Errorf("encode input: %w", err)
	}
	if d.results, err = json.Marshal(s.Results); err != nil {
		return d, fmt.Errorf("encode results: %w", err)
	}
	if d.costs, err = json.Marshal(s.Costs); err != nil {
		return d, fmt.Errorf("encode costs: %w", err)
	}
	if d.provenance, err = json.Marshal(s.Provenance); err != nil {
		return d, fmt.Errorf("encode provenance: %w", err)
	}
	return d, nil
}

func decodeColumns(s *address.Submission, d columns) error {
	if err := json.Unmarshal(d.input, &s.Input); err != nil {
		return fmt.Errorf("decode input: %w", err)
	}
	if err := json.Unmarshal(d.results, &s.Results); err != nil {
		return fmt.Errorf("decode results: %w", err)
	}
	if len(d.costs) > 0 {
		if err := json.Unmarshal(d.costs, &s.Costs); err != nil {
			return fmt.Errorf("decode costs: %w", err)
		}
	}
	if len(d.provenance) > 0 {
		if err := json.Unmarshal(d.provenance, &s.Provenance); err != nil {
			return fmt.Errorf("decode provenance: %w", err)
		}
	}
	return nil
}

func scanSubmission(sc repository.Scanner) (address.Submission, error) {
	var (
		s         address.Submission
		d         columns
		preferred sql.NullString
	)
	err := sc.Scan(
		&s.UserID, &s.SubmissionID, &s.CreatedAt, &s.ExpiresAt,
		&d.input, &d.results, &d.costs, &d.provenance, &preferred,
	)
	if err != nil {
		return address.Submission{}, err
	}
	if err := decodeColumns(&s, d); err != nil {
		return address.Submission{}, err
	}
	if preferred.Valid {
		id := address.PipelineID(preferred.String)
		s.PreferredMethod = &id
	}
	return s, nil
}
