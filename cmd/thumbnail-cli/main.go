package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fpang/image-thumbnail-lambda/internal/envelope"
	"github.com/fpang/image-thumbnail-lambda/internal/imaging"
	"github.com/fpang/image-thumbnail-lambda/internal/lambdaboot"
	"github.com/fpang/image-thumbnail-lambda/internal/logging"
	"github.com/fpang/image-thumbnail-lambda/internal/thumbnail"
)

// CLI flags
var (
	eventFlag         string
	resizedBucketFlag string
	bucketFlag        string
	keyFlag           string
	inFlag            string
	outFlag           string
	maxDimensionFlag  int
	qualityFlag       int
)

// rootCmd is the main Cobra command for the thumbnail CLI.
var rootCmd = &cobra.Command{
	Use:   "thumbnail-cli",
	Short: "Run the image thumbnail function locally",
	Long: `thumbnail-cli runs the thumbnail Lambda handler outside of Lambda.

"invoke" sends an event to the real handler, reading and writing S3 with your
local AWS credentials and the same environment variables the Lambda uses.
"process" runs the S3 transform for one bucket and key, skipping envelope
resolution. "resize" runs only the image pipeline on local files.

Examples:
  thumbnail-cli invoke --event event.json
  echo '{"bucket":"src","key":"photo.png"}' | thumbnail-cli invoke --event -
  thumbnail-cli invoke -e event.json --resized-bucket my-thumbs
  thumbnail-cli process --bucket src --key photos/cat.png
  thumbnail-cli resize --in photo.png --out thumb.jpg --max 256`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init()
	},
}

var invokeCmd = &cobra.Command{
	Use:   "invoke",
	Short: "Invoke the thumbnail handler with an event",
	RunE:  runInvoke,
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Generate the thumbnail for one S3 object",
	RunE:  runProcess,
}

var resizeCmd = &cobra.Command{
	Use:   "resize",
	Short: "Generate a JPEG thumbnail from a local image file",
	RunE:  runResize,
}

func init() {
	invokeCmd.Flags().StringVarP(&eventFlag, "event", "e", "-", "Event JSON file, or - for stdin")
	invokeCmd.Flags().StringVar(&resizedBucketFlag, "resized-bucket", "", "Destination bucket (overrides "+lambdaboot.EnvResizedBucket+")")

	processCmd.Flags().StringVarP(&bucketFlag, "bucket", "b", "", "Source bucket")
	processCmd.Flags().StringVarP(&keyFlag, "key", "k", "", "Source object key")
	processCmd.Flags().StringVar(&resizedBucketFlag, "resized-bucket", "", "Destination bucket (overrides "+lambdaboot.EnvResizedBucket+")")
	processCmd.MarkFlagRequired("bucket")
	processCmd.MarkFlagRequired("key")

	resizeCmd.Flags().StringVarP(&inFlag, "in", "i", "", "Source image file")
	resizeCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Destination JPEG file")
	resizeCmd.Flags().IntVar(&maxDimensionFlag, "max", imaging.DefaultMaxDimension, "Maximum width/height in pixels")
	resizeCmd.Flags().IntVarP(&qualityFlag, "quality", "q", imaging.DefaultJPEGQuality, "JPEG quality (1-100)")
	resizeCmd.MarkFlagRequired("in")
	resizeCmd.MarkFlagRequired("out")

	rootCmd.AddCommand(invokeCmd, processCmd, resizeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runInvoke runs one event through thumbnail.Handler and prints the result.
func runInvoke(cmd *cobra.Command, args []string) error {
	event, err := readEvent(eventFlag, cmd.InOrStdin())
	if err != nil {
		return err
	}

	h, err := newHandler()
	if err != nil {
		return err
	}

	result, err := h.Handle(localContext(), event)
	if err != nil {
		return err
	}
	if err := printResult(cmd.OutOrStdout(), result); err != nil {
		return err
	}
	if result.Status != thumbnail.StatusSuccess {
		return fmt.Errorf("invocation failed: %s", result.Error)
	}
	return nil
}

// runProcess generates the thumbnail for --bucket/--key without an envelope.
func runProcess(cmd *cobra.Command, args []string) error {
	h, err := newHandler()
	if err != nil {
		return err
	}
	return processObject(cmd.Context(), h, bucketFlag, keyFlag, cmd.OutOrStdout())
}

func processObject(ctx context.Context, h *thumbnail.Handler, bucket, key string, out io.Writer) error {
	if bucket == "" || key == "" {
		return fmt.Errorf("both --bucket and --key are required")
	}
	ctx = thumbnail.WithRequestID(ctx, uuid.NewString())

	result, err := h.Process(ctx, envelope.Request{Bucket: bucket, Key: key})
	if err != nil {
		return err
	}
	return printResult(out, result)
}

func newHandler() (*thumbnail.Handler, error) {
	cfg, err := lambdaboot.LoadThumbnailConfig()
	if err != nil {
		return nil, err
	}
	if resizedBucketFlag != "" {
		cfg.DestinationBucket = resizedBucketFlag
	}

	awsCfg := lambdaboot.InitAWS()
	return thumbnail.NewHandler(lambdaboot.InitS3(awsCfg), cfg).WithMetricsWriter(io.Discard), nil
}

func localContext() context.Context {
	return thumbnail.WithRequestID(context.Background(), uuid.NewString())
}

func printResult(w io.Writer, result thumbnail.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func readEvent(path string, stdin io.Reader) (json.RawMessage, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read event: %w", err)
	}
	return json.RawMessage(data), nil
}

// runResize applies the same decode, fit and encode steps as the Lambda to a local file.
func runResize(cmd *cobra.Command, args []string) error {
	start := time.Now()

	data, err := os.ReadFile(inFlag)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}

	img, format, err := imaging.Decode(data)
	if err != nil {
		return err
	}
	thumb := imaging.Thumbnail(img, maxDimensionFlag)
	out, err := imaging.EncodeJPEG(thumb, qualityFlag)
	if err != nil {
		return err
	}

	if err := os.WriteFile(outFlag, out, 0o644); err != nil {
		return fmt.Errorf("write thumbnail: %w", err)
	}

	b := thumb.Bounds()
	log.Info().
		Str("in", inFlag).
		Str("format", format).
		Str("out", outFlag).
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Int("size", len(out)).
		Dur("duration", time.Since(start)).
		Msg("Thumbnail written")
	return nil
}
