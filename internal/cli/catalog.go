package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/exteriorpros/paintstudio/internal/colorsrv/config"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/invalidation"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/palette"
	"github.com/exteriorpros/paintstudio/internal/colorsrv/resourcestore"
)

const (
	fileOK        = "ok"
	fileMalformed = "malformed"
	fileSkipped   = "skipped"
)

// FileReport is the outcome of checking one file of a catalog tree.
type FileReport struct {
	Path     string   `json:"path"`
	Key      string   `json:"key,omitempty"`
	Status   string   `json:"status"`
	Colors   int      `json:"colors,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

var errCatalogInvalid = errors.New("catalog has malformed collections")

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Check, normalise and publish colour catalog files",
	}
	cmd.AddCommand(newCatalogValidateCmd(), newCatalogNormalizeCmd(), newCatalogPushCmd())
	return cmd
}

func newCatalogValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <root>",
		Short: "Decode every collection under a catalog directory",
		Long: `Decode every collection under a catalog directory the way the colour
server does and report the files it would refuse to serve.

Examples:
  paintstudio catalog validate public/colors-json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reports, err := ValidateCatalog(cmd.Context(), osfs.New(args[0]))
			if err != nil {
				return err
			}
			if jsonOutput {
				printResult(reports)
			} else {
				printReports(os.Stdout, reports)
			}
			for _, r := range reports {
				if r.Status == fileMalformed {
					return errCatalogInvalid
				}
			}
			return nil
		},
	}
}

// ValidateCatalog decodes every brand/type/level.json file in fs. Files that do
// not sit at a collection path or name an unknown brand, type or level are
// reported as skipped.
func ValidateCatalog(ctx context.Context, fs billy.Filesystem) ([]FileReport, error) {
	store := resourcestore.NewFilesystemStoreFrom(fs)
	var reports []FileReport
	err := walkFiles(fs, "", func(p string) error {
		if !strings.HasSuffix(p, ".json") {
			return nil
		}
		r := FileReport{Path: p}
		key, err := resourcestore.KeyFromPath(p)
		switch {
		case err != nil:
			r.Status, r.Reason = fileSkipped, "not at brand/type/level.json"
		case !key.Valid():
			r.Status, r.Reason = fileSkipped, "unknown brand, type or level: "+key.String()
		default:
			r.Key = key.String()
			res, err := store.ReadAndStat(ctx, p)
			if err != nil {
				return err
			}
			doc, err := palette.DecodeDocument(ctx, key, res.Content)
			if err != nil {
				r.Status = fileMalformed
				var de *palette.DocumentError
				if errors.As(err, &de) {
					r.Reason = de.Reason
				} else {
					r.Reason = err.Error()
				}
			} else {
				r.Status = fileOK
				r.Colors = len(doc.Colors)
				r.Warnings = doc.Warnings
			}
		}
		reports = append(reports, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].Path < reports[j].Path })
	return reports, nil
}

func walkFiles(fs billy.Filesystem, dir string, fn func(p string) error) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to read %q: %w", dir, err)
	}
	for _, e := range entries {
		p := fs.Join(dir, e.Name())
		if e.IsDir() {
			if err := walkFiles(fs, p, fn); err != nil {
				return err
			}
			continue
		}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func printReports(w io.Writer, reports []FileReport) {
	var ok, malformed, skipped int
	for _, r := range reports {
		switch r.Status {
		case fileOK:
			ok++
			fmt.Fprintf(w, "ok         %s (%d colours)\n", r.Path, r.Colors)
			for _, warning := range r.Warnings {
				fmt.Fprintf(w, "           warning: %s\n", warning)
			}
		case fileMalformed:
			malformed++
			fmt.Fprintf(w, "malformed  %s: %s\n", r.Path, r.Reason)
		default:
			skipped++
			fmt.Fprintf(w, "skipped    %s: %s\n", r.Path, r.Reason)
		}
	}
	fmt.Fprintf(w, "\n%d ok, %d malformed, %d skipped\n", ok, malformed, skipped)
}

// NormalizeReport summarises the edits made by NormalizeDocument.
type NormalizeReport struct {
	Colors            int      `json:"colors"`
	HexRewritten      int      `json:"hexRewritten"`
	IDsAssigned       []string `json:"idsAssigned,omitempty"`
	DuplicatesRemoved []string `json:"duplicatesRemoved,omitempty"`
}

// NormalizeDocument prepares a scraped colour file for publishing: hex codes
// are upper-cased with a leading #, records without an id get one, records
// that repeat an earlier hex are removed and meta.totalColors is set to the
// number of records kept. The document is edited in place, so fields and
// formatting the edits do not touch are preserved.
func NormalizeDocument(content []byte) ([]byte, *NormalizeReport, error) {
	if !gjson.ValidBytes(content) {
		return nil, nil, errors.New("document is not valid JSON")
	}
	colors := gjson.GetBytes(content, "colors")
	if !colors.IsArray() {
		return nil, nil, errors.New("document has no colors array")
	}

	out := content
	report := &NormalizeReport{}
	seen := make(map[string]string)
	var removed []int
	var err error
	for i, c := range colors.Array() {
		hex := c.Get("hex").String()
		norm, hexErr := palette.NormalizeHex(hex)
		if hexErr != nil {
			return nil, nil, fmt.Errorf("colors[%d]: invalid hex %q", i, hex)
		}
		id := c.Get("id").String()
		if first, dup := seen[norm]; dup {
			removed = append(removed, i)
			report.DuplicatesRemoved = append(report.DuplicatesRemoved, fmt.Sprintf("%s (%s repeats %s)", norm, id, first))
			continue
		}
		if id == "" {
			if id, err = gonanoid.New(); err != nil {
				return nil, nil, fmt.Errorf("unable to generate id: %w", err)
			}
			if out, err = sjson.SetBytes(out, fmt.Sprintf("colors.%d.id", i), id); err != nil {
				return nil, nil, err
			}
			report.IDsAssigned = append(report.IDsAssigned, id)
		}
		seen[norm] = id
		if norm != hex {
			if out, err = sjson.SetBytes(out, fmt.Sprintf("colors.%d.hex", i), norm); err != nil {
				return nil, nil, err
			}
			report.HexRewritten++
		}
	}
	// Later indexes first so earlier ones stay valid.
	for j := len(removed) - 1; j >= 0; j-- {
		if out, err = sjson.DeleteBytes(out, fmt.Sprintf("colors.%d", removed[j])); err != nil {
			return nil, nil, err
		}
	}
	report.Colors = len(colors.Array()) - len(removed)
	if out, err = sjson.SetBytes(out, "meta.totalColors", report.Colors); err != nil {
		return nil, nil, err
	}
	return out, report, nil
}

func newCatalogNormalizeCmd() *cobra.Command {
	var outFile string
	var inPlace bool
	cmd := &cobra.Command{
		Use:   "normalize <file>",
		Short: "Normalise a scraped colour file before publishing",
		Long: `Normalise a scraped colour file before publishing. Hex codes are
upper-cased, missing ids are generated, duplicate hex codes are removed and
meta.totalColors is rewritten.

Examples:
  # Print the normalised document
  paintstudio catalog normalize scraped/behr-interior-good.json

  # Rewrite the file
  paintstudio catalog normalize -i public/colors-json/behr/interior/good.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			out, report, err := NormalizeDocument(content)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			if inPlace {
				outFile = args[0]
			}
			if outFile == "" {
				os.Stdout.Write(out)
				return nil
			}
			if err := os.WriteFile(outFile, out, 0644); err != nil {
				return err
			}
			if jsonOutput {
				printResult(report)
				return nil
			}
			fmt.Printf("%s: %d colours, %d hex codes rewritten, %d ids assigned, %d duplicates removed\n",
				outFile, report.Colors, report.HexRewritten, len(report.IDsAssigned), len(report.DuplicatesRemoved))
			return nil
		},
	}
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "Write the result to this file instead of stdout")
	cmd.Flags().BoolVarP(&inPlace, "in-place", "i", false, "Rewrite the input file")
	return cmd
}

func newCatalogPushCmd() *cobra.Command {
	var (
		keyStr       string
		serverConfig string
		clearAfter   bool
	)
	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Publish a colour file to the catalog backend of a colour server",
		Long: `Publish a colour file to the catalog backend named in a colour server
configuration. The file is decoded first and refused when the server could not
serve it.

Examples:
  paintstudio catalog push good.json --key behr:interior:good --server-config colorsrv.conf --clear`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			key, err := palette.ParseKey(keyStr)
			if err != nil {
				return err
			}
			if !key.Valid() {
				return fmt.Errorf("unknown brand, type or level: %s", key)
			}
			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			if err := config.LoadConfig(serverConfig); err != nil {
				return err
			}
			store, err := resourcestore.Open(ctx, config.Config().Catalog.StoreOptions())
			if err != nil {
				return err
			}
			defer resourcestore.Close(store)
			colors, err := PushCollection(ctx, store, key, content)
			if err != nil {
				return err
			}
			result := map[string]any{"key": key.String(), "colors": colors}
			if clearAfter {
				if err := LoadConfig(configFile); err != nil {
					return err
				}
				n, err := publishClear(ctx, GetConfig(), invalidation.ClearKey(key))
				if err != nil {
					return err
				}
				result["servers"] = n
			}
			if jsonOutput {
				printResult(result)
			} else {
				fmt.Printf("Published %s (%d colours)\n", key, colors)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keyStr, "key", "", "Collection key, brand:type:level")
	cmd.Flags().StringVar(&serverConfig, "server-config", "colorsrv.conf", "Colour server configuration naming the catalog backend")
	cmd.Flags().BoolVar(&clearAfter, "clear", false, "Clear the collection from every running server afterwards")
	cmd.MarkFlagRequired("key")
	return cmd
}

// PushCollection decodes content and writes it to store at the path of key.
// It returns the number of colours the server will serve.
func PushCollection(ctx context.Context, store resourcestore.Store, key palette.Key, content []byte) (int, error) {
	w, ok := store.(resourcestore.Writer)
	if !ok {
		return 0, errors.New("catalog backend is read only")
	}
	doc, err := palette.DecodeDocument(ctx, key, content)
	if err != nil {
		return 0, err
	}
	if err := w.Put(ctx, store.ResolvePath(key), content); err != nil {
		return 0, err
	}
	return len(doc.Colors), nil
}
