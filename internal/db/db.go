package db

import (
	"context"
	"fmt"
	"net"
	"net/url"

	"github.com/senyabanana/sealed-bid-service/internal/router/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ConnString возвращает строку подключения: POSTGRES_CONN или собранную из отдельных параметров.
// Пустая строка означает, что база не настроена и сервис работает в памяти.
func ConnString(cfg config.Config) string {
	if cfg.PostgresConn != "" {
		return cfg.PostgresConn
	}
	if cfg.PostgresHost == "" || cfg.PostgresDB == "" {
		return ""
	}
	port := cfg.PostgresPort
	if port == "" {
		port = "5432"
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.PostgresUser, cfg.PostgresPass),
		Host:     net.JoinHostPort(cfg.PostgresHost, port),
		Path:     "/" + cfg.PostgresDB,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// InitDb инициализирует подключение к базе данных и возвращает пул соединений.
func InitDb(ctx context.Context, databaseUrl string) (*pgxpool.Pool, error) {
	if databaseUrl == "" {
		return nil, fmt.Errorf("database connection string is empty")
	}

	dbPool, err := pgxpool.New(ctx, databaseUrl)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}
	if err := dbPool.Ping(ctx); err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("unable to reach database: %v", err)
	}
	return dbPool, nil
}
