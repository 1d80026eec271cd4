package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arguslabs/argus/internal/ui"
	"github.com/arguslabs/argus/pkg/service/s3"
)

var s3Cmd = &cobra.Command{
	Use:   "s3",
	Short: "Manage S3 buckets and objects",
}

var s3LsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List buckets",
	RunE:  runS3List,
}

var s3ObjectsCmd = &cobra.Command{
	Use:   "objects <bucket>",
	Short: "List objects in a bucket",
	Long: `List objects in a bucket, optionally filtered by key prefix.

Examples:
  argus s3 objects my-bucket
  argus s3 objects my-bucket --prefix logs/ --max 50`,
	Args: cobra.ExactArgs(1),
	RunE: runS3Objects,
}

var s3TouchCmd = &cobra.Command{
	Use:   "touch <bucket> [key...]",
	Short: "Refresh object timestamps without changing content",
	Long: `Touch one or more objects: update their last-modified timestamp and
metadata by copying each object onto itself. Without keys, an interactive
selector over the bucket's objects is shown.

Examples:
  argus s3 touch my-bucket path/to/file.txt
  argus s3 touch my-bucket a.txt b.txt c.txt
  argus s3 touch my-bucket --meta release=v2.1
  argus s3 touch my-bucket --no-preserve`,
	Args: cobra.MinimumNArgs(1),
	RunE: runS3Touch,
}

var (
	// s3 flags
	s3Prefix     string
	s3Max        int
	s3NoPreserve bool
	s3Meta       []string
)

func init() {
	rootCmd.AddCommand(s3Cmd)
	s3Cmd.AddCommand(s3LsCmd)
	s3Cmd.AddCommand(s3ObjectsCmd)
	s3Cmd.AddCommand(s3TouchCmd)

	s3ObjectsCmd.Flags().StringVar(&s3Prefix, "prefix", "", "Only list keys with this prefix")
	s3ObjectsCmd.Flags().IntVar(&s3Max, "max", 100, "Maximum number of objects to list")

	s3TouchCmd.Flags().BoolVar(&s3NoPreserve, "no-preserve", false, "Drop existing custom metadata instead of preserving it")
	s3TouchCmd.Flags().StringSliceVar(&s3Meta, "meta", nil, "Custom metadata to set, as key=value (repeatable)")
}

func runS3List(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	buckets, err := s3.NewReader(client.S3()).ListBuckets(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list buckets: %w", err)
	}
	if len(buckets) == 0 {
		fmt.Println("No buckets found")
		return nil
	}

	t := ui.NewTable(
		ui.Column{Title: "Name", Width: 40, Style: ui.NameStyle},
		ui.Column{Title: "Region", Width: 14, Style: ui.ValueStyle},
		ui.Column{Title: "Created", Width: 19, Style: ui.DimStyle},
	)
	rows := make([][]string, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, []string{b.Name, b.Region, b.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	t.Print(rows)
	fmt.Printf("  %d buckets\n", len(buckets))

	return nil
}

func runS3Objects(cmd *cobra.Command, args []string) error {
	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	objects, err := s3.NewReader(client.S3()).ListObjects(cmd.Context(), args[0], s3Prefix, s3Max)
	if err != nil {
		return fmt.Errorf("failed to list objects: %w", err)
	}
	if len(objects) == 0 {
		fmt.Println("No objects found")
		return nil
	}

	t := ui.NewTable(
		ui.Column{Title: "Key", Width: 48, Style: ui.NameStyle},
		ui.Column{Title: "Size", Width: 12, Style: ui.ValueStyle},
		ui.Column{Title: "Modified", Width: 19, Style: ui.DimStyle},
		ui.Column{Title: "Class", Width: 12, Style: ui.DimStyle},
	)
	rows := make([][]string, 0, len(objects))
	for _, o := range objects {
		rows = append(rows, []string{
			o.Key,
			fmt.Sprintf("%d", o.Size),
			o.LastModified.Format("2006-01-02 15:04:05"),
			o.StorageClass,
		})
	}
	t.Print(rows)
	fmt.Printf("  %d objects\n", len(objects))

	return nil
}

func runS3Touch(cmd *cobra.Command, args []string) error {
	bucket := args[0]
	keys := args[1:]

	client, err := newClient(cmd.Context())
	if err != nil {
		return err
	}

	// No keys given: pick one interactively
	if len(keys) == 0 {
		objects, err := s3.NewReader(client.S3()).ListObjects(cmd.Context(), bucket, "", 1000)
		if err != nil {
			return fmt.Errorf("failed to list objects: %w", err)
		}
		items := make([]ui.Item, 0, len(objects))
		for _, o := range objects {
			items = append(items, ui.Item{
				ID:     o.Key,
				Name:   o.Key,
				Detail: fmt.Sprintf("%d B", o.Size),
				State:  "available",
				Fields: []ui.Field{
					{Label: "Key:", Value: o.Key},
					{Label: "Size:", Value: fmt.Sprintf("%d bytes", o.Size)},
					{Label: "Modified:", Value: o.LastModified.Format("2006-01-02 15:04:05")},
					{Label: "ETag:", Value: o.ETag},
					{Label: "Class:", Value: o.StorageClass},
				},
			})
		}
		selected, err := ui.Select("Object", items)
		if err != nil {
			return err
		}
		keys = []string{selected.ID}
	}

	opts := s3.DefaultTouchOptions()
	opts.PreserveMetadata = !s3NoPreserve
	if len(s3Meta) > 0 {
		opts.CustomMetadata = make(map[string]string, len(s3Meta))
		for _, kv := range s3Meta {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("invalid --meta value %q, expected key=value", kv)
			}
			opts.CustomMetadata[k] = v
		}
	}

	writer := s3.NewWriter(client.S3())

	if len(keys) == 1 {
		result, err := writer.Touch(cmd.Context(), bucket, keys[0], opts)
		if err != nil {
			return fmt.Errorf("failed to touch object: %w", err)
		}
		fmt.Printf("%s s3://%s/%s\n", ui.OKStyle.Render("✓ touched"), result.Bucket, result.Key)
		fmt.Printf("  was: %s\n", ui.DimStyle.Render(result.PreviousLastModified.Format("2006-01-02 15:04:05")))
		fmt.Printf("  now: %s\n", result.NewLastModified.Format("2006-01-02 15:04:05"))
		return nil
	}

	result, err := writer.BatchTouch(cmd.Context(), bucket, keys, opts)
	if err != nil {
		return fmt.Errorf("failed to touch objects: %w", err)
	}
	fmt.Printf("Touched %d/%d objects in %s\n", result.SuccessfulCount, result.TotalObjects, bucket)
	for _, f := range result.FailedObjects {
		fmt.Printf("  %s %s: %s\n", ui.WarnStyle.Render("✗"), f.Key, f.Error)
	}
	return nil
}
