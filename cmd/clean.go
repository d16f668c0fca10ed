package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/wrenlab/folio-backend/config"
	"github.com/wrenlab/folio-backend/database"
	"github.com/wrenlab/folio-backend/database/repo/posts"
	"github.com/wrenlab/folio-backend/storage/chunkstore"
)

// cleanCmd 清理不再被任何记录引用的存储对象
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete stored objects no longer referenced by any record",
	Long: `Delete stored objects no longer referenced by any record.

Objects can be orphaned when a reference update succeeds but the
follow-up delete of the replaced object fails.

Example:
  # Show what would be deleted
  folio-backend clean --dry-run

  # Delete orphan objects
  folio-backend clean`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		if err := runClean(dryRun); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
}

// runClean 执行孤儿对象清理
func runClean(dryRun bool) error {
	config.InitConfig()
	cfg := config.Get()

	factory, err := database.NewFactory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer factory.Close()

	db := factory.GetProvider().DB()
	store := chunkstore.New(db)
	postsRepo := posts.NewRepository(db)

	ctx := context.Background()

	stored, err := store.ListIdentifiers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored objects: %w", err)
	}

	referencedIDs, err := postsRepo.ListReferencedObjectIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list referenced objects: %w", err)
	}
	referenced := make(map[string]struct{}, len(referencedIDs))
	for _, id := range referencedIDs {
		referenced[id] = struct{}{}
	}

	var orphans []string
	for _, id := range stored {
		if _, ok := referenced[id]; !ok {
			orphans = append(orphans, id)
		}
	}

	log.Printf("Found %d stored objects, %d referenced, %d orphaned", len(stored), len(referenced), len(orphans))

	if dryRun {
		for _, id := range orphans {
			log.Printf("[dry-run] would delete object %s", id)
		}
		return nil
	}

	deleted := 0
	for _, id := range orphans {
		if err := store.Delete(ctx, id); err != nil {
			log.Printf("Failed to delete orphan object %s: %v", id, err)
			continue
		}
		deleted++
	}

	log.Printf("Deleted %d orphan objects", deleted)
	return nil
}
