package prompts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JaimeStill/addrsplit/internal/cost"
	"github.com/JaimeStill/addrsplit/pkg/query"
	"github.com/JaimeStill/addrsplit/pkg/repository"
)

var projection = query.
	NewProjectionMap("public.user_settings", "s").
	Project("user_id", "UserID").
	Project("prompt_template", "PromptTemplate").
	Project("pricing", "Pricing").
	Project("updated_at", "UpdatedAt")

const upsert = `
		INSERT INTO user_settings (user_id, prompt_template, pricing, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET prompt_template = EXCLUDED.prompt_template,
			pricing = EXCLUDED.pricing,
			updated_at = EXCLUDED.updated_at`

type postgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a Store over the user_settings table.
func NewPostgresStore(db *sql.DB) Store {
	return &postgresStore{db: db}
}

func (p *postgresStore) Get(ctx context.Context, userID string) (*Settings, error) {
	q, args := query.NewBuilder(projection).
		WhereEquals("UserID", userID).
		BuildSingleOrNull()

	s, err := repository.QueryOne(ctx, p.db, q, args, scanSettings)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &s, nil
}

func (p *postgresStore) Put(ctx context.Context, userID string, s Settings) error {
	var pricing any
	if s.Pricing != nil {
		data, err := json.Marshal(s.Pricing)
		if err != nil {
			return fmt.Errorf("marshal pricing: %w", err)
		}
		pricing = string(data)
	}

	updated := time.Now().UTC()
	if s.UpdatedAt != nil {
		updated = *s.UpdatedAt
	}

	_, err := repository.WithTx(ctx, p.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(ctx, tx, upsert, userID, s.PromptTemplate, pricing, updated)
	})
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func scanSettings(sc repository.Scanner) (Settings, error) {
	var (
		s       Settings
		userID  string
		pricing []byte
		updated time.Time
	)
	if err := sc.Scan(&userID, &s.PromptTemplate, &pricing, &updated); err != nil {
		return Settings{}, err
	}
	if len(pricing) > 0 {
		var p cost.Pricing
		if err := json.Unmarshal(pricing, &p); err != nil {
			return Settings{}, fmt.Errorf("decode pricing: %w", err)
		}
		s.Pricing = &p
	}
	s.UpdatedAt = &updated
	return s, nil
}
