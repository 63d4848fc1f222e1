package modelfusion

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"

	"modelfusion/internal/fusion"
	"modelfusion/internal/model"
	"modelfusion/internal/rest"
	"modelfusion/internal/storage"
	"modelfusion/internal/supervised"
)

const defaultDBPath = "modelfusion.db"

// Engine types re-exported so callers can name them without reaching into
// the internal packages.
type (
	Fusion            = fusion.Fusion
	PredictArgs       = fusion.PredictArgs
	Prediction        = model.Prediction
	InputData         = model.InputData
	OperatingPoint    = model.OperatingPoint
	OperationSettings = model.OperationSettings
	MissingStrategy   = supervised.MissingStrategy
)

const (
	LastPrediction = supervised.LastPrediction
	Proportional   = supervised.Proportional
)

// Options configures a Client. Username and APIKey are required; everything
// else has a working default.
type Options struct {
	APIURL   string
	Username string
	APIKey   string

	// StoreKind selects the local resource cache backend ("memory" or
	// "sqlite"); StorePath is the sqlite database path.
	StoreKind string
	StorePath string

	// MaxModels bounds how many fusion members are materialized at once
	// during a local prediction. Zero means no bound.
	MaxModels int

	HTTPClient *http.Client
	Logger     *zap.SugaredLogger

	// Loader overrides how member predictors are materialized, mainly for
	// embedding alternative local predictor implementations.
	Loader supervised.Loader

	// OperationSettings sets per-client prediction defaults, such as a
	// default operating point.
	OperationSettings *model.OperationSettings
}

// Client is the entry point of the SDK: remote resource handlers plus the
// local fusion prediction engine.
type Client struct {
	conn  *rest.Connection
	store storage.Store

	maxModels int
	loader    supervised.Loader
	settings  *model.OperationSettings

	associations *rest.AssociationHandler
	pcas         *rest.PCAHandler
	fusions      *rest.FusionHandler
}

func New(opts Options) (*Client, error) {
	conn, err := rest.NewConnection(rest.Config{
		BaseURL:    opts.APIURL,
		Username:   opts.Username,
		APIKey:     opts.APIKey,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	storePath := opts.StorePath
	if storePath == "" {
		storePath = defaultDBPath
	}
	store, err := storage.NewStore(storeKind, storePath)
	if err != nil {
		return nil, err
	}
	if err := store.Init(context.Background()); err != nil {
		return nil, err
	}

	return &Client{
		conn:         conn,
		store:        store,
		maxModels:    opts.MaxModels,
		loader:       opts.Loader,
		settings:     opts.OperationSettings,
		associations: rest.NewAssociationHandler(conn),
		pcas:         rest.NewPCAHandler(conn),
		fusions:      rest.NewFusionHandler(conn),
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

// Associations returns the handler for association resources.
func (c *Client) Associations() *rest.AssociationHandler { return c.associations }

// PCAs returns the handler for principal component analysis resources.
func (c *Client) PCAs() *rest.PCAHandler { return c.pcas }

// Fusions returns the handler for fusion resources.
func (c *Client) Fusions() *rest.FusionHandler { return c.fusions }

// GetResource downloads any resource descriptor by identifier.
func (c *Client) GetResource(ctx context.Context, id string) (map[string]any, error) {
	return c.conn.GetResource(ctx, id)
}

// LocalFusion downloads (or reads from the cache) a fusion and builds the
// local prediction engine for it, proactively caching every member.
func (c *Client) LocalFusion(ctx context.Context, id string) (*fusion.Fusion, error) {
	return fusion.New(ctx, id, c.fusionConfig())
}

// LocalFusionFromResource builds the local engine from an already-downloaded
// fusion descriptor.
func (c *Client) LocalFusionFromResource(ctx context.Context, raw map[string]any) (*fusion.Fusion, error) {
	return fusion.NewFromResource(ctx, raw, c.fusionConfig())
}

// LoadLocalFusion restores a fusion previously saved with its Dump method,
// skipping remote resolution.
func (c *Client) LoadLocalFusion(r io.Reader) (*fusion.Fusion, error) {
	return fusion.Load(r, c.fusionConfig())
}

// LoadLocalFusionFromStore restores the fusion snapshot persisted under id.
func (c *Client) LoadLocalFusionFromStore(ctx context.Context, id string) (*fusion.Fusion, error) {
	return fusion.LoadFromStore(ctx, c.store, id, c.fusionConfig())
}

// SaveLocalFusion persists the fusion's snapshot in the client store.
func (c *Client) SaveLocalFusion(ctx context.Context, f *fusion.Fusion) error {
	return f.DumpToStore(ctx, c.store)
}

func (c *Client) fusionConfig() fusion.Config {
	return fusion.Config{
		MaxModels:         c.maxModels,
		Getter:            c.conn,
		Loader:            c.loader,
		Store:             c.store,
		OperationSettings: c.settings,
	}
}
