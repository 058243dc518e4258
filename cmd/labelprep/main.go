// Command labelprep turns the MBTI corpus into training labels and a
// tokenizer vocabulary for the personality model.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bryanwahyu/persona-analyzer/internal/config"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/ml/textseq"
	"github.com/bryanwahyu/persona-analyzer/internal/infra/storage"
	"github.com/bryanwahyu/persona-analyzer/internal/logging"
)

// uploader is satisfied by storage.Store.
type uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

type app struct {
	configPath string
	verbose    bool
	logger     *zap.Logger

	// newUploader is swapped in tests
	newUploader func(ctx context.Context, configPath string) (uploader, error)
}

func main() {
	if err := newRootCmd(&app{newUploader: minioUploader}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "labelprep",
		Short:        "Prepare personality training data from an MBTI corpus",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.logger != nil {
				return nil
			}
			level := "info"
			if a.verbose {
				level = "debug"
			}
			l, err := logging.New(level, "console")
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "config.yaml", "config file with the minio section (for --upload-key)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(a.traitsCmd(), a.vocabCmd())
	return root
}

func (a *app) traitsCmd() *cobra.Command {
	var in, out, uploadKey string
	cmd := &cobra.Command{
		Use:   "traits",
		Short: "Map MBTI codes to Big Five trait labels (JSON lines)",
		Long: `Reads a CSV with "type" and "posts" columns and writes one
{"type","traits","text"} object per line. Rows with an invalid MBTI
code are skipped.

Example:
  labelprep traits --in mbti_1.csv --out labels.jsonl`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(in)
			if err != nil {
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			bw := bufio.NewWriter(f)
			written, skipped, err := writeTraits(bw, rows)
			if err == nil {
				err = bw.Flush()
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.logger.Info("trait labels written",
				zap.String("out", out),
				zap.Int("rows", written),
				zap.Int("skipped", skipped))
			return a.upload(cmd.Context(), out, uploadKey)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input CSV path")
	cmd.Flags().StringVar(&out, "out", "labels.jsonl", "output JSONL path")
	cmd.Flags().StringVar(&uploadKey, "upload-key", "", "object key to upload the output to")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) vocabCmd() *cobra.Command {
	var in, out, oov, uploadKey string
	var numWords int
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Fit the tokenizer vocabulary over the corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(in)
			if err != nil {
				return err
			}
			vocab := buildVocabulary(rows, numWords, oov)

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			err = vocab.Write(f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			a.logger.Info("vocabulary written",
				zap.String("out", out),
				zap.Int("words", len(vocab.WordIndex)),
				zap.Int("num_words", vocab.NumWords))
			return a.upload(cmd.Context(), out, uploadKey)
		},
	}
	cmd.Flags().StringVar(&in, "in", "", "input CSV path")
	cmd.Flags().StringVar(&out, "out", "vocab.json", "output vocabulary path")
	cmd.Flags().IntVar(&numWords, "num-words", textseq.DefaultNumWords, "vocabulary size limit")
	cmd.Flags().StringVar(&oov, "oov", textseq.DefaultOOVToken, "out-of-vocabulary token")
	cmd.Flags().StringVar(&uploadKey, "upload-key", "", "object key to upload the output to")
	_ = cmd.MarkFlagRequired("in")
	return cmd
}

func (a *app) upload(ctx context.Context, path, key string) error {
	if key == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	up, err := a.newUploader(ctx, a.configPath)
	if err != nil {
		return err
	}
	url, err := up.Upload(ctx, path, key)
	if err != nil {
		return err
	}
	a.logger.Info("uploaded", zap.String("key", key), zap.String("url", url))
	return nil
}

func minioUploader(ctx context.Context, configPath string) (uploader, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Minio.Endpoint == "" {
		return nil, fmt.Errorf("--upload-key needs minio.endpoint in %s", configPath)
	}
	return storage.New(ctx, storage.Options{
		Endpoint:   cfg.Minio.Endpoint,
		Region:     cfg.Minio.Region,
		BucketName: cfg.Minio.BucketName,
		AccessKey:  cfg.Minio.AccessKey,
		SecretKey:  cfg.Minio.SecretKey,
		UseSSL:     cfg.Minio.UseSSL,
	})
}

func readRowsFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rows, err := readRows(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
