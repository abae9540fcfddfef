package storage

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"clippulse/internal/adapters/storage/gdrive"
	"clippulse/internal/adapters/storage/localfs"
	miniostore "clippulse/internal/adapters/storage/minio"
)

// NewProvider builds the artifact store selected by STORAGE_PROVIDER:
// localfs (default), minio, or gdrive.
func NewProvider(ctx context.Context) (Provider, error) {
	provider := os.Getenv("STORAGE_PROVIDER")
	if provider == "" {
		provider = "localfs"
	}

	switch provider {
	case "localfs":
		root := os.Getenv("STORAGE_LOCAL_ROOT")
		if root == "" {
			root = "/data"
		}
		return localfs.New(root), nil

	case "minio":
		return newMinioProvider(ctx)

	case "gdrive":
		return newGDriveProvider(ctx)

	default:
		return nil, fmt.Errorf("unknown storage provider: %s", provider)
	}
}

func newMinioProvider(ctx context.Context) (Provider, error) {
	st, err := miniostore.New(miniostore.Config{
		Endpoint:  mustEnv("MINIO_ENDPOINT"),
		AccessKey: mustEnv("MINIO_ACCESS_KEY"),
		SecretKey: mustEnv("MINIO_SECRET_KEY"),
		Bucket:    mustEnv("MINIO_BUCKET"),
		UseSSL:    os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		return nil, err
	}
	if err := st.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

func newGDriveProvider(ctx context.Context) (Provider, error) {
	clientID := mustEnv("GDRIVE_CLIENT_ID")
	clientSecret := mustEnv("GDRIVE_CLIENT_SECRET")
	refreshToken := mustEnv("GDRIVE_REFRESH_TOKEN")
	folderID := os.Getenv("GDRIVE_FOLDER_ID")

	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{drive.DriveFileScope},
	}

	tok := &oauth2.Token{RefreshToken: refreshToken}
	httpClient := conf.Client(ctx, tok)

	srv, err := drive.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, err
	}

	return gdrive.NewClient(srv, folderID), nil
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
