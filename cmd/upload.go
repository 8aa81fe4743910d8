package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pennywise-app/pennywise/internal/api"
	"github.com/pennywise-app/pennywise/internal/cli"
	"github.com/pennywise-app/pennywise/internal/log"
	"github.com/pennywise-app/pennywise/internal/receipt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	flagUploadDir     string
	flagUploadWorkers int
)

var uploadCmd = &cobra.Command{
	Use:   "upload [FILE...]",
	Short: "Upload receipt images or PDFs",
	Long:  "Upload receipts for the server to turn into expenses. Pass files, or --dir to upload every receipt under a directory.",
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().StringVarP(&flagUploadDir, "dir", "d", "", "Upload every receipt found under this directory")
	uploadCmd.Flags().IntVarP(&flagUploadWorkers, "workers", "w", 3, "Concurrent uploads")
	rootCmd.AddCommand(uploadCmd)
}

type uploadResult struct {
	file    receipt.File
	message string
	err     error
}

func runUpload(cmd *cobra.Command, args []string) error {
	files, err := receiptArgs(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no receipts to upload (pass files or --dir)")
	}

	ctx := cmd.Context()
	s, err := openSession(ctx, false)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.requireOnline(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "  Uploading %d receipts (%s)...\n",
		len(files), cli.FormatNumber(receipt.TotalSize(files)>>10)+" KB")

	results := uploadAll(ctx, s.client, s.owner, files, flagUploadWorkers)

	rows := make([][]string, 0, len(results))
	failed := 0
	for _, r := range results {
		status := okText(r.message, "Uploaded")
		if r.err != nil {
			failed++
			status = cli.Error(api.Message(r.err))
		}
		rows = append(rows, []string{r.file.Name, cli.FormatNumber(r.file.Size>>10) + " KB", status})
	}
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Headers:  []string{"File", "Size", "Result"},
		Rows:     rows,
		LeftCols: 1,
	}))

	if failed < len(results) {
		// Refresh so the cached snapshot includes whatever the server
		// created from the receipts.
		if err := s.ctrl.Reload(ctx); err != nil {
			logger.Warn("reload after upload", log.FieldError, err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(results))
	}
	return nil
}

// receiptArgs resolves explicit files plus --dir into one list.
func receiptArgs(args []string) ([]receipt.File, error) {
	var files []receipt.File
	for _, a := range args {
		fi, err := os.Stat(a)
		if err != nil {
			return nil, err
		}
		if fi.IsDir() {
			return nil, fmt.Errorf("%s is a directory (use --dir)", a)
		}
		files = append(files, receipt.File{Path: a, Name: filepath.Base(a), Size: fi.Size()})
	}
	if flagUploadDir != "" {
		found, tooLarge, err := receipt.ScanDir(flagUploadDir, api.MaxReceiptSize)
		if err != nil {
			return nil, err
		}
		for _, f := range tooLarge {
			fmt.Fprintf(os.Stderr, "  %s\n", cli.Warn(fmt.Sprintf("Skipping %s: larger than %d MB", f.Path, api.MaxReceiptSize>>20)))
		}
		files = append(files, found...)
	}
	return files, nil
}

// uploadAll uploads files with at most workers in flight. Results keep the
// input order; one failure does not stop the rest.
func uploadAll(ctx context.Context, c *api.Client, owner string, files []receipt.File, workers int) []uploadResult {
	results := make([]uploadResult, len(files))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, f := range files {
		g.Go(func() error {
			msg, err := uploadOne(ctx, c, owner, f)
			mu.Lock()
			results[i] = uploadResult{file: f, message: msg, err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func uploadOne(ctx context.Context, c *api.Client, owner string, f receipt.File) (string, error) {
	fh, err := os.Open(f.Path)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	return c.UploadReceipt(ctx, owner, f.Name, fh)
}

func okText(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
