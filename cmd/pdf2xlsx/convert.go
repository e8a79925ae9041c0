package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/config"
	"github.com/bagaskar44/jasaraharja-camelot-converter/internal/convert"
)

type summary struct {
	File    string            `json:"file"`
	Mode    string            `json:"mode"`
	Pages   string            `json:"pages"`
	Tables  []convert.Preview `json:"tables"`
	Rows    int               `json:"rows"`
	Columns int               `json:"columns"`
}

func convertCmd(a *app) *cobra.Command {
	var pages string
	var mode string
	var out string
	var dir string
	var pad bool
	var preview bool

	cmd := &cobra.Command{
		Use:   "convert <pdf>",
		Short: "Extract every table of a PDF into one .xlsx sheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			cfg, conv, logger, err := a.setup(cmd.Context(), func(c *config.Config) {
				if flags.Changed("pages") {
					c.Extraction.Pages = pages
				}
				if flags.Changed("mode") {
					c.Extraction.Mode = mode
				}
				if flags.Changed("pad") {
					c.Merge.PadMismatched = pad
				}
			})
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			m, err := convert.ParseMode(cfg.Extraction.Mode)
			if err != nil {
				return err
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := conv.Convert(cmd.Context(), convert.Request{
				PDF:        f,
				Pages:      cfg.Extraction.Pages,
				Mode:       m,
				OutputName: out,
			})
			if err != nil {
				msg := convert.Describe(err, m)
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", msg.Level, msg.Text)
				fmt.Fprintf(cmd.ErrOrStderr(), "hint: %s\n", msg.Hint)
				return errReported
			}

			w := cmd.OutOrStdout()
			if preview {
				for _, p := range res.Tables {
					fmt.Fprintln(w, p.Title())
					fmt.Fprintln(w, p.Markdown())
				}
				fmt.Fprintln(w, res.CombinedTitle())
				fmt.Fprintln(w, res.Combined.Markdown())
			}

			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
			path := filepath.Join(dir, res.FileName)
			if err := os.WriteFile(path, res.Workbook, 0o644); err != nil {
				return err
			}

			b, _ := json.MarshalIndent(summary{
				File:    path,
				Mode:    m.Flavor(),
				Pages:   cfg.Extraction.Pages,
				Tables:  res.Tables,
				Rows:    len(res.Combined.Rows),
				Columns: len(res.Combined.Header),
			}, "", "  ")
			fmt.Fprintln(w, string(b))
			return nil
		},
	}
	cmd.Flags().StringVarP(&pages, "pages", "p", "all", `pages to read: "all" or ranges like 1-3,5,7-end`)
	cmd.Flags().StringVarP(&mode, "mode", "m", "bordered", "extraction mode: bordered|text")
	cmd.Flags().StringVarP(&out, "out", "o", "converted_tables", "workbook name (.xlsx is appended)")
	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "directory the workbook is written to")
	cmd.Flags().BoolVar(&pad, "pad", false, "merge tables with different columns by header name instead of failing")
	cmd.Flags().BoolVar(&preview, "preview", false, "print every extracted table and the merged sheet before the summary")
	return cmd
}
