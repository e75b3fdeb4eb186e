package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/tinytune/internal/media"
	"github.com/ziadkadry99/tinytune/internal/preview"
)

var (
	listSort  string
	listQuery string
	listAll   bool
)

var listCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List indexed entries",
	Long: `Prints the indexed entries of the media root, or of the directory with the
given relative path, as a table. --query searches names below it instead
and --all lists the whole index.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, ok := media.LookupSort(listSort); !ok {
			return fmt.Errorf("unknown sort %q, available: %s", listSort, strings.Join(media.SortNames(), ", "))
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		database, err := openDatabase(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		store := media.NewStore(database)

		dirID := ""
		if len(args) == 1 && strings.Trim(args[0], "/.") != "" {
			dir, err := findDir(ctx, store, strings.Trim(args[0], "/"))
			if err != nil {
				return err
			}
			dirID = dir.ID
		}

		var items []media.Item
		switch {
		case listQuery != "":
			items, err = store.Search(ctx, listQuery, dirID)
		case listAll:
			items, err = store.All(ctx)
		default:
			items, err = store.Children(ctx, dirID)
		}
		if err != nil {
			return fmt.Errorf("listing entries: %w", err)
		}
		items = media.Sort(items, listSort)

		if len(items) == 0 {
			fmt.Fprintln(os.Stderr, "No entries. Run `tinytune index` to scan the media folder.")
			return nil
		}

		rows := make([][]string, 0, len(items))
		for _, it := range items {
			rows = append(rows, []string{
				it.ID,
				it.RelPath,
				string(it.Kind),
				sizeColumn(it),
				dimensionsColumn(it),
				lengthColumn(it),
				humanize.Time(it.ModTime),
			})
		}
		fmt.Println(renderTable(
			[]string{"ID", "Path", "Kind", "Size", "Dimensions", "Length", "Modified"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))

		stats, err := store.Stats(ctx)
		if err != nil {
			return fmt.Errorf("reading index stats: %w", err)
		}
		fmt.Printf("%s entries listed; index holds %s images, %s videos, %s in total\n",
			humanize.Comma(int64(len(items))),
			humanize.Comma(int64(stats.Images)),
			humanize.Comma(int64(stats.Videos)),
			humanize.Bytes(uint64(stats.TotalSize)))
		return nil
	},
}

// findDir resolves a relative directory path to its indexed entry.
func findDir(ctx context.Context, store *media.Store, relPath string) (*media.Item, error) {
	items, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	for _, it := range items {
		if it.Kind == media.KindDir && it.RelPath == relPath {
			return &it, nil
		}
	}
	return nil, fmt.Errorf("directory %q is not indexed", relPath)
}

func sizeColumn(it media.Item) string {
	if it.Kind == media.KindDir {
		return ""
	}
	return humanize.Bytes(uint64(it.Size))
}

func dimensionsColumn(it media.Item) string {
	switch {
	case it.HasStrip():
		return fmt.Sprintf("strip %dx%d", it.PreviewWidth, it.PreviewHeight)
	case it.Width > 0 && it.Height > 0:
		return fmt.Sprintf("%dx%d", it.Width, it.Height)
	default:
		return ""
	}
}

func lengthColumn(it media.Item) string {
	if it.Duration <= 0 {
		return ""
	}
	return preview.FormatDuration(it.Duration)
}

func init() {
	listCmd.Flags().StringVar(&listSort, "sort", "A-Z", "sort order")
	listCmd.Flags().StringVarP(&listQuery, "query", "q", "", "search names instead of listing children")
	listCmd.Flags().BoolVar(&listAll, "all", false, "list every indexed entry")
	rootCmd.AddCommand(listCmd)
}
