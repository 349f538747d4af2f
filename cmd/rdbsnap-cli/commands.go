package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/emberkv/rdbsnap/archive"
	"github.com/emberkv/rdbsnap/bgsave"
	"github.com/emberkv/rdbsnap/config"
	"github.com/emberkv/rdbsnap/iochannel"
	"github.com/emberkv/rdbsnap/snapshot"
)

func newLogger() *zap.Logger {
	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}

	return logger
}

func newDefaultConfig(logger *zap.Logger) (*config.SnapshotContext, error) {
	return config.New(config.WithLogger(logger))
}

// demoKeyspace seeds a toyKeyspace with a handful of entries so save/
// bgsave have something to write without a real datastore attached.
func demoKeyspace() *toyKeyspace {
	k := newToyKeyspace()
	k.Set(0, "greeting", "hello from rdbsnap")
	k.Set(0, "counter", "42")
	k.Set(1, "other-db-key", "still here")

	return k
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rdbsnap-cli",
		Short: "Drive the rdbsnap snapshot codec from the command line",
	}

	root.AddCommand(newSaveCmd())
	root.AddCommand(newBGSaveCmd())
	root.AddCommand(newLoadCmd())
	root.AddCommand(newArchiveCmd())
	root.AddCommand(newRestoreCmd())

	return root
}

func newSaveCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Run a synchronous save of the demo keyspace to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := newDefaultConfig(logger)
			if err != nil {
				return err
			}

			sink, err := iochannel.NewFileSink(path)
			if err != nil {
				return err
			}

			if err := snapshot.Save(sink, demoKeyspace(), cfg); err != nil {
				_ = sink.Abort()
				return fmt.Errorf("save: %w", err)
			}

			if err := sink.Commit(); err != nil {
				_ = sink.Abort()
				return fmt.Errorf("save: commit: %w", err)
			}

			logger.Info("save complete", zap.String("path", path))

			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "dump.rdb", "destination dump file path")

	return cmd
}

func newBGSaveCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "bgsave",
		Short: "Re-exec this binary as a background-save child and wait for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := newDefaultConfig(logger)
			if err != nil {
				return err
			}

			registry := bgsave.NewRegistry(logger, cfg.KillSignal)
			proc, err := registry.Spawn(bgsave.KindDisk, path)
			if err != nil {
				return err
			}

			state, err := proc.Wait()
			if err != nil {
				return fmt.Errorf("bgsave: wait: %w", err)
			}
			if !state.Success() {
				return fmt.Errorf("bgsave: child exited with %s", state)
			}

			fmt.Fprintf(os.Stdout, "background save wrote %s\n", path)

			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "dump.rdb", "destination dump file path")

	return cmd
}

func newLoadCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load a dump file into a fresh in-process keyspace and print its contents",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer logger.Sync()

			cfg, err := newDefaultConfig(logger)
			if err != nil {
				return err
			}

			f, src, err := iochannel.OpenFileSource(path)
			if err != nil {
				return err
			}
			defer f.Close()

			host := newToyKeyspace()
			if err := snapshot.Load(src, host, cfg, func(total int64) {
				logger.Debug("load progress", zap.Int64("bytes", total))
			}); err != nil {
				return fmt.Errorf("load: %w", err)
			}

			host.Print(os.Stdout)

			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "dump.rdb", "dump file path to load")

	return cmd
}

func newArchiveCmd() *cobra.Command {
	var path, out, codecName string

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "Compress a sealed dump file into a portable backup archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := parseCodecFlag(codecName)
			if err != nil {
				return err
			}

			dump, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			archived, err := archive.Create(dump, codec)
			if err != nil {
				return err
			}

			return os.WriteFile(out, archived, 0o644)
		},
	}
	cmd.Flags().StringVar(&path, "path", "dump.rdb", "sealed dump file to archive")
	cmd.Flags().StringVar(&out, "out", "dump.rdba", "archive output path")
	cmd.Flags().StringVar(&codecName, "codec", "zstd", "compression codec: none, zstd, s2, lz4")

	return cmd
}

func newRestoreCmd() *cobra.Command {
	var path, out string

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Decompress a backup archive back into a sealed dump file",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			dump, err := archive.Restore(data)
			if err != nil {
				return err
			}

			return os.WriteFile(out, dump, 0o644)
		},
	}
	cmd.Flags().StringVar(&path, "path", "dump.rdba", "archive file to restore")
	cmd.Flags().StringVar(&out, "out", "dump.rdb", "restored dump output path")

	return cmd
}

func parseCodecFlag(name string) (archive.Codec, error) {
	switch name {
	case "none":
		return archive.CodecNone, nil
	case "zstd":
		return archive.CodecZstd, nil
	case "s2":
		return archive.CodecS2, nil
	case "lz4":
		return archive.CodecLZ4, nil
	default:
		return 0, fmt.Errorf("unknown codec %q", name)
	}
}
