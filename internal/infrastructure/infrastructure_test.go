package infrastructure_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/JaimeStill/addrsplit/internal/config"
	"github.com/JaimeStill/addrsplit/internal/infrastructure"
	"github.com/JaimeStill/addrsplit/pkg/database"
)

func validConfig() *config.Config {
	return &config.Config{
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "addrsplit",
			User:            "addrsplit",
			Password:        "addrsplit",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		AWS:     config.AWSConfig{Region: "eu-central-1"},
		Store:   config.StoreConfig{Driver: config.DriverPostgres},
		Version: "0.1.0",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil {
		t.Error("Lifecycle is nil")
	}
	if infra.Logger == nil {
		t.Error("Logger is nil")
	}
	if infra.Database == nil {
		t.Error("Database is nil")
	}
	if infra.Storage != nil {
		t.Error("Storage should be nil without credentials")
	}
	if infra.Redis != nil {
		t.Error("Redis should be nil without a url")
	}
	if infra.AWS.Region != "eu-central-1" {
		t.Errorf("AWS region = %s, want eu-central-1", infra.AWS.Region)
	}
}

func TestNewMemoryDriverSkipsDatabase(t *testing.T) {
	cfg := validConfig()
	cfg.Store.Driver = config.DriverMemory

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Database != nil {
		t.Error("Database should be nil for the memory driver")
	}
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := validConfig()
	cfg.Redis.URL = "redis://" + mr.Addr() + "/0"

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if infra.Redis == nil {
		t.Fatal("Redis is nil")
	}
	if err := infra.Redis.Ping(context.Background()).Err(); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestNewRedisInvalidURL(t *testing.T) {
	cfg := validConfig()
	cfg.Redis.URL = "http://not-redis"

	if _, err := infrastructure.New(cfg); err == nil {
		t.Fatal("expected error for a non-redis url")
	}
}

func TestLoadAWSStaticCredentials(t *testing.T) {
	cfg := &config.AWSConfig{
		Region:          "us-west-2",
		Endpoint:        "http://localhost:4566",
		AccessKeyID:     "test",
		SecretAccessKey: "secret",
	}

	awsCfg, err := infrastructure.LoadAWS(context.Background(), cfg)
	if err != nil {
		t.Fatalf("LoadAWS() error = %v", err)
	}
	if awsCfg.BaseEndpoint == nil || *awsCfg.BaseEndpoint != "http://localhost:4566" {
		t.Errorf("BaseEndpoint = %v", awsCfg.BaseEndpoint)
	}

	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Errorf("AccessKeyID = %s, want test", creds.AccessKeyID)
	}
}

func TestStart(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := validConfig()
	cfg.Store.Driver = config.DriverMemory
	cfg.Redis.URL = "redis://" + mr.Addr()

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		t.Fatalf("WaitForStartup() error = %v", err)
	}
	if !infra.Lifecycle.Ready() {
		t.Error("Ready() should be true after a clean startup")
	}
	if err := infra.Lifecycle.Shutdown(5 * time.Second); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestStartRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := validConfig()
	cfg.Store.Driver = config.DriverMemory
	cfg.Redis.URL = "redis://" + addr

	infra, err := infrastructure.New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := infra.Lifecycle.WaitForStartup(); err == nil {
		t.Fatal("WaitForStartup() should report the failed redis ping")
	}
	if infra.Lifecycle.Ready() {
		t.Error("Ready() should stay false")
	}
	infra.Lifecycle.Shutdown(5 * time.Second)
}
