package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"
	"strings"

	"go.uber.org/zap"

	"modelfusion/internal/storage"
	"modelfusion/internal/supervised"
	mfapi "modelfusion/pkg/modelfusion"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "predict":
		return runPredict(ctx, args[1:])
	case "dump":
		return runDump(ctx, args[1:])
	case "resource":
		return runResource(ctx, args[1:])
	case "create-fusion":
		return runCreateFusion(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: modelfusionctl <predict|dump|resource|create-fusion> [flags]", msg)
}

type clientFlags struct {
	config    *string
	store     *string
	dbPath    *string
	maxModels *int
	verbose   *bool
}

func registerClientFlags(fs *flag.FlagSet) clientFlags {
	return clientFlags{
		config:    fs.String("config", "", "path to a YAML configuration file"),
		store:     fs.String("store", "", "cache backend: memory|sqlite"),
		dbPath:    fs.String("db-path", "", "sqlite database path"),
		maxModels: fs.Int("max-models", 0, "max fusion members loaded at once (0 = all)"),
		verbose:   fs.Bool("verbose", false, "log every API call"),
	}
}

func newClient(flags clientFlags) (*mfapi.Client, error) {
	cfg, err := loadConfig(*flags.config)
	if err != nil {
		return nil, err
	}
	if *flags.store != "" {
		cfg.Store = *flags.store
	}
	if *flags.dbPath != "" {
		cfg.DBPath = *flags.dbPath
	}
	if *flags.maxModels > 0 {
		cfg.MaxModels = *flags.maxModels
	}

	var logger *zap.SugaredLogger
	if *flags.verbose {
		base, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		logger = base.Sugar()
	}

	if cfg.Store == "" {
		cfg.Store = storage.DefaultStoreKind()
	}
	return mfapi.New(mfapi.Options{
		APIURL:    cfg.APIURL,
		Username:  cfg.Username,
		APIKey:    cfg.APIKey,
		StoreKind: cfg.Store,
		StorePath: cfg.DBPath,
		MaxModels: cfg.MaxModels,
		Logger:    logger,
	})
}

func runPredict(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("predict", flag.ContinueOnError)
	flags := registerClientFlags(fs)
	fusionID := fs.String("fusion", "", "fusion resource id")
	inputJSON := fs.String("input", "", "input row as JSON")
	inputFile := fs.String("input-file", "", "path to a JSON input row")
	strategyName := fs.String("missing-strategy", "last_prediction", "missing strategy: last_prediction|proportional")
	positiveClass := fs.String("operating-class", "", "positive class for an operating point")
	threshold := fs.Float64("operating-threshold", 0, "probability threshold for the operating point")
	full := fs.Bool("full", false, "include unused input fields in the output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fusionID == "" {
		return errors.New("predict requires -fusion")
	}

	input, err := readInput(*inputJSON, *inputFile)
	if err != nil {
		return err
	}
	strategy, err := parseStrategy(*strategyName)
	if err != nil {
		return err
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	local, err := client.LocalFusion(ctx, *fusionID)
	if err != nil {
		return err
	}

	predictArgs := mfapi.PredictArgs{MissingStrategy: strategy, Full: *full}
	if *positiveClass != "" {
		predictArgs.OperatingPoint = &mfapi.OperatingPoint{
			PositiveClass: *positiveClass,
			Threshold:     *threshold,
		}
	}
	prediction, err := local.Predict(ctx, input, predictArgs)
	if err != nil {
		return err
	}
	return printJSON(prediction)
}

func runDump(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	flags := registerClientFlags(fs)
	fusionID := fs.String("fusion", "", "fusion resource id")
	outPath := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *fusionID == "" {
		return errors.New("dump requires -fusion")
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	local, err := client.LocalFusion(ctx, *fusionID)
	if err != nil {
		return err
	}
	if *outPath == "" {
		return local.Dump(os.Stdout)
	}
	out, err := os.Create(*outPath)
	if err != nil {
		return err
	}
	defer out.Close()
	return local.Dump(out)
}

func runResource(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("resource requires an operation: get|list|update|delete|clone")
	}
	op := args[0]

	fs := flag.NewFlagSet("resource "+op, flag.ContinueOnError)
	flags := registerClientFlags(fs)
	kind := fs.String("kind", "", "resource kind: association|pca|fusion")
	id := fs.String("id", "", "resource id")
	changesJSON := fs.String("changes", "", "update changes as JSON")
	filter := fs.String("filter", "", "list filter as a query string, e.g. name__contains=iris")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	handler, err := handlerForKind(client, *kind)
	if err != nil {
		return err
	}

	switch op {
	case "get":
		payload, err := handler.Get(ctx, *id, nil)
		if err != nil {
			return err
		}
		return printJSON(payload)
	case "list":
		filters, err := url.ParseQuery(*filter)
		if err != nil {
			return fmt.Errorf("parse filter: %w", err)
		}
		objects, err := handler.List(ctx, filters)
		if err != nil {
			return err
		}
		return printJSON(objects)
	case "update":
		var changes map[string]any
		if err := json.Unmarshal([]byte(*changesJSON), &changes); err != nil {
			return fmt.Errorf("parse changes: %w", err)
		}
		payload, err := handler.Update(ctx, *id, changes)
		if err != nil {
			return err
		}
		return printJSON(payload)
	case "delete":
		return handler.Delete(ctx, *id)
	case "clone":
		payload, err := handler.Clone(ctx, *id, nil)
		if err != nil {
			return err
		}
		return printJSON(payload)
	default:
		return usageError(fmt.Sprintf("unknown resource operation: %s", op))
	}
}

func runCreateFusion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-fusion", flag.ContinueOnError)
	flags := registerClientFlags(fs)
	modelsArg := fs.String("models", "", "comma-separated member model ids")
	name := fs.String("name", "", "fusion name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *modelsArg == "" {
		return errors.New("create-fusion requires -models")
	}

	var members []any
	for _, id := range strings.Split(*modelsArg, ",") {
		if id = strings.TrimSpace(id); id != "" {
			members = append(members, id)
		}
	}

	client, err := newClient(flags)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	creationArgs := map[string]any{}
	if *name != "" {
		creationArgs["name"] = *name
	}
	payload, err := client.Fusions().CreateFromModels(ctx, members, creationArgs)
	if err != nil {
		return err
	}
	return printJSON(payload)
}

type lifecycleHandler interface {
	Get(ctx context.Context, id string, query url.Values) (map[string]any, error)
	List(ctx context.Context, filters url.Values) ([]any, error)
	Update(ctx context.Context, id string, changes map[string]any) (map[string]any, error)
	Delete(ctx context.Context, id string) error
	Clone(ctx context.Context, id string, args map[string]any) (map[string]any, error)
}

func handlerForKind(client *mfapi.Client, kind string) (lifecycleHandler, error) {
	switch kind {
	case "association":
		return client.Associations(), nil
	case "pca":
		return client.PCAs(), nil
	case "fusion":
		return client.Fusions(), nil
	default:
		return nil, fmt.Errorf("unsupported resource kind: %q", kind)
	}
}

func readInput(inputJSON, inputFile string) (mfapi.InputData, error) {
	var data []byte
	switch {
	case inputJSON != "" && inputFile != "":
		return nil, errors.New("use either -input or -input-file")
	case inputJSON != "":
		data = []byte(inputJSON)
	case inputFile != "":
		fileData, err := os.ReadFile(inputFile)
		if err != nil {
			return nil, err
		}
		data = fileData
	default:
		return mfapi.InputData{}, nil
	}

	var input mfapi.InputData
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("parse input: %w", err)
	}
	return input, nil
}

func parseStrategy(name string) (supervised.MissingStrategy, error) {
	switch name {
	case "", "last_prediction":
		return supervised.LastPrediction, nil
	case "proportional":
		return supervised.Proportional, nil
	default:
		return 0, fmt.Errorf("unknown missing strategy: %q", name)
	}
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
