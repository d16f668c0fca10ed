package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
	"github.com/wrenlab/folio-backend/config"
	"github.com/wrenlab/folio-backend/database"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
	"golang.org/x/sync/errgroup"
)

// mirrorCmd 把分片存储中的全部对象镜像到 S3 兼容存储
var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Mirror all stored objects to an S3-compatible bucket",
	Long: `Mirror all stored objects to an S3-compatible bucket.

Requires mirror_endpoint, mirror_access_key, mirror_secret_key and
mirror_bucket to be configured.

Example:
  folio-backend mirror
  folio-backend mirror --workers 8`,
	Run: func(cmd *cobra.Command, args []string) {
		workers, _ := cmd.Flags().GetInt("workers")

		if err := runMirror(workers); err != nil {
			log.Fatalf("Mirror failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(mirrorCmd)
	mirrorCmd.Flags().Int("workers", 0, "Number of concurrent upload workers (default: mirror_workers config)")
}

// runMirror 执行镜像导出
func runMirror(workers int) error {
	config.InitConfig()
	cfg := config.Get()

	if cfg.MirrorEndpoint == "" {
		return fmt.Errorf("mirror_endpoint is not configured")
	}
	if workers <= 0 {
		workers = cfg.MirrorWorkers
	}
	if workers <= 0 {
		workers = 4
	}

	factory, err := database.NewFactory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer factory.Close()

	store := chunkstore.New(factory.GetProvider().DB())

	client, err := minio.New(cfg.MirrorEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MirrorAccessKey, cfg.MirrorSecretKey, ""),
		Secure: cfg.MirrorUseSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create mirror client: %w", err)
	}

	ctx := context.Background()

	exists, err := client.BucketExists(ctx, cfg.MirrorBucket)
	if err != nil {
		return fmt.Errorf("failed to check mirror bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MirrorBucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create mirror bucket: %w", err)
		}
		log.Printf("Created mirror bucket '%s'", cfg.MirrorBucket)
	}

	identifiers, err := store.ListIdentifiers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored objects: %w", err)
	}

	log.Printf("Mirroring %d objects to '%s' with %d workers", len(identifiers), cfg.MirrorBucket, workers)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, identifier := range identifiers {
		identifier := identifier
		group.Go(func() error {
			return mirrorObject(groupCtx, store, client, cfg.MirrorBucket, identifier)
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	log.Printf("Mirrored %d objects", len(identifiers))
	return nil
}

// mirrorObject 把单个对象流式上传到镜像桶
func mirrorObject(ctx context.Context, store *chunkstore.Store, client *minio.Client, bucket, identifier string) error {
	reader, meta, err := store.OpenReadStream(ctx, identifier)
	if err != nil {
		return fmt.Errorf("failed to open object %s: %w", identifier, err)
	}
	defer reader.Close()

	_, err = client.PutObject(ctx, bucket, meta.StorageName, reader, meta.SizeBytes, minio.PutObjectOptions{
		ContentType: meta.ContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to mirror object %s: %w", identifier, err)
	}

	log.Printf("Mirrored object %s (%d bytes)", identifier, meta.SizeBytes)
	return nil
}
