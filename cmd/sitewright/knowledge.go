package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sitewright/internal/knowledge"
)

var (
	knowledgeSourceDir string
	knowledgeDir       string
	knowledgeCommitSHA string
	knowledgeDocsRepo  string

	searchLimit int
)

var knowledgeProcessCmd = &cobra.Command{
	Use:   "process",
	Short: "Parse synced documentation into the four knowledge axes",
	RunE: func(cmd *cobra.Command, args []string) error {
		proc := knowledge.NewProcessor(knowledgeSourceDir, knowledgeDir,
			knowledge.NowTimestamp(), cfg.Knowledge.DomainTerms, logger)
		meta, err := proc.ProcessAll()
		if err != nil {
			return err
		}

		logger.Info("processing complete",
			zap.Int("processed", len(meta.ProcessedFiles)),
			zap.Int("skipped", meta.Statistics.SkippedFiles))
		return nil
	},
}

var knowledgeEmbeddingsCmd = &cobra.Command{
	Use:   "embeddings",
	Short: "Generate TF-IDF embeddings and similarity data",
	RunE: func(cmd *cobra.Command, args []string) error {
		gen := knowledge.NewEmbeddingGenerator(
			filepath.Join(knowledgeDir, "parsings"),
			filepath.Join(knowledgeDir, "vectors"),
			cfg.Knowledge.MaxFeatures, logger)
		return gen.GenerateAll()
	},
}

var knowledgeGraphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Build the knowledge graph from ontologies and parsed documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		builder := knowledge.NewGraphBuilder(knowledgeDir,
			filepath.Join(knowledgeDir, "graphs"),
			knowledge.NowTimestamp(), logger)
		return builder.BuildAll()
	},
}

var knowledgeMetadataCmd = &cobra.Command{
	Use:   "metadata",
	Short: "Refresh knowledge base metadata and the content index",
	RunE: func(cmd *cobra.Command, args []string) error {
		updater := knowledge.NewMetadataUpdater(knowledgeDir, knowledgeCommitSHA,
			knowledgeDocsRepo, knowledge.NowTimestamp(), logger)
		return updater.UpdateAll()
	},
}

var knowledgeSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch documentation files from the docs repository",
	RunE: func(cmd *cobra.Command, args []string) error {
		syncer := knowledge.NewSyncer(cfg.Knowledge.SyncAPIBase, cfg.Knowledge.SyncAPIToken, logger)
		kb, err := syncer.Sync(cmd.Context(), knowledgeDocsRepo, knowledgeSourceDir, knowledge.NowTimestamp())
		if err != nil {
			return err
		}

		logger.Info("sync complete",
			zap.Int("files", kb.Summary.TotalFiles),
			zap.Int("bytes", kb.Summary.TotalSize))
		return nil
	},
}

var knowledgeIndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index parsed documents into the local search database",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := knowledge.NewStore(cfg.Knowledge.IndexPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.IndexDocuments(filepath.Join(knowledgeDir, "parsings"), knowledge.NowTimestamp())
		if err != nil {
			return err
		}

		logger.Info("indexing complete",
			zap.Int("indexed", stats.Indexed),
			zap.Int("skipped", stats.Skipped))
		return nil
	},
}

var knowledgeSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := knowledge.NewStore(cfg.Knowledge.IndexPath, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.Search(args[0], searchLimit)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("no matches")
			return nil
		}
		for _, r := range results {
			fmt.Printf("%s  %s\n    %s\n", r.Path, r.Title, r.Snippet)
		}
		return nil
	},
}

var knowledgeWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the docs source directory and reprocess on change",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		onChange := func(ctx context.Context, paths []string) {
			logger.Info("documentation changed", zap.Strings("paths", paths))
			proc := knowledge.NewProcessor(knowledgeSourceDir, knowledgeDir,
				knowledge.NowTimestamp(), cfg.Knowledge.DomainTerms, logger)
			if _, err := proc.ProcessAll(); err != nil {
				logger.Error("reprocessing failed", zap.Error(err))
			}
		}

		watcher, err := knowledge.NewWatcher(knowledgeSourceDir, onChange, logger)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		logger.Info("watching for documentation changes", zap.String("dir", knowledgeSourceDir))

		<-ctx.Done()
		watcher.Stop()

		stats := watcher.Stats()
		logger.Info("watcher stopped", zap.Int("batches", stats.BatchesProcessed))
		return nil
	},
}

var knowledgeCmd = &cobra.Command{
	Use:   "knowledge",
	Short: "Documentation ingestion and knowledge base operations",
}

func init() {
	knowledgeCmd.PersistentFlags().StringVar(&knowledgeSourceDir, "source-dir", "docs_source", "raw documentation directory")
	knowledgeCmd.PersistentFlags().StringVar(&knowledgeDir, "knowledge-dir", "background", "knowledge base directory")
	knowledgeCmd.PersistentFlags().StringVar(&knowledgeCommitSHA, "commit-sha", "", "commit SHA recorded in sync history")
	knowledgeCmd.PersistentFlags().StringVar(&knowledgeDocsRepo, "docs-repo", "", "owner/name of the docs repository")

	knowledgeSearchCmd.Flags().IntVar(&searchLimit, "limit", 10, "maximum results to print")

	knowledgeCmd.AddCommand(knowledgeSyncCmd)
	knowledgeCmd.AddCommand(knowledgeProcessCmd)
	knowledgeCmd.AddCommand(knowledgeEmbeddingsCmd)
	knowledgeCmd.AddCommand(knowledgeGraphCmd)
	knowledgeCmd.AddCommand(knowledgeMetadataCmd)
	knowledgeCmd.AddCommand(knowledgeIndexCmd)
	knowledgeCmd.AddCommand(knowledgeSearchCmd)
	knowledgeCmd.AddCommand(knowledgeWatchCmd)
}
