package appenv

import (
	"context"
	"fmt"
	"github.com/minio/minio-go/v7"
	miniocredentials "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
	"log/slog"
	"os"
	"photo-geotag/amap"
	"photo-geotag/archive"
	"photo-geotag/repos"
)

// Services holds the optional network collaborators. A nil field means the
// environment did not configure it.
type Services struct {
	Repo    *repos.Repo
	AMap    *amap.Client
	Archive *archive.Uploader

	rdb *redis.Client
}

// Connect builds every service whose environment variables are set.
func Connect(ctx context.Context, logger *slog.Logger) (*Services, error) {
	s := &Services{}

	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		repo, err := repos.Connect(databaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect journal: %w", err)
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, fmt.Errorf("migrate journal: %w", err)
		}
		s.Repo = repo
		logger.Info("journal enabled")
	}

	if key := os.Getenv("AMAP_API_KEY"); key != "" {
		if err := amap.ValidateKey(key); err != nil {
			s.Close()
			return nil, fmt.Errorf("AMAP_API_KEY: %w", err)
		}
		s.AMap = amap.New(GetEnv("AMAP_ENDPOINT", amap.Endpoint), key, logger)

		if redisAddr := os.Getenv("REDIS_ADDR"); redisAddr != "" {
			s.rdb = redis.NewClient(&redis.Options{
				Addr: redisAddr,
			})
			s.AMap.SetCache(amap.NewRedisCache(s.rdb))
			logger.Info("amap cache enabled", "addr", redisAddr)
		}
	}

	if endpoint := os.Getenv("MINIO_ENDPOINT"); endpoint != "" {
		mc, err := minio.New(endpoint, &minio.Options{
			Creds:  miniocredentials.NewStaticV4(MustGetEnv("MINIO_ACCESS_KEY"), MustGetEnv("MINIO_SECRET_KEY"), ""),
			Secure: os.Getenv("MINIO_INSECURE") == "",
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("minio: %w", err)
		}
		s.Archive = archive.NewUploader(mc, MustGetEnv("MINIO_BUCKET"), GetEnv("MINIO_PREFIX", "geotag"), logger)
		logger.Info("archive enabled", "endpoint", endpoint)
	}

	return s, nil
}

func (s *Services) Close() {
	if s.Repo != nil {
		s.Repo.Close()
	}
	if s.rdb != nil {
		_ = s.rdb.Close()
	}
}
