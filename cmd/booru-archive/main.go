package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"time"

	"bugmaschine/booru-mux/booru"
	"bugmaschine/booru-mux/config"
	"bugmaschine/booru-mux/export"
	"bugmaschine/booru-mux/logging"
	"bugmaschine/booru-mux/schema"
	"bugmaschine/booru-mux/sink"

	"golang.org/x/sync/errgroup"
)

type archiver struct {
	query    booru.Query
	pages    int
	tagPages int
	db       *export.DB
	assets   sink.Sink

	posts  atomic.Int64
	stored atomic.Int64
	failed atomic.Int64
}

func main() {
	var (
		sourcesFlag = flag.String("sources", "", "comma separated sources to archive (default: all)")
		tags        = flag.String("tags", "", `space separated tags, "-tag" excludes`)
		orderFlag   = flag.String("order", "newest", "newest, oldest, most_liked or least_liked")
		pages       = flag.Int("pages", 1, "number of result pages per source")
		limit       = flag.Int("limit", 50, "posts per page")
		tagPages    = flag.Int("tag-pages", 0, "also archive this many pages of each tag list")
		toDB        = flag.Bool("db", false, "upsert results into PostgreSQL (DB_* settings)")
		download    = flag.Bool("download", false, "store assets in S3 (S3_* settings) or ASSET_DIR")
		concurrency = flag.Int("concurrency", 4, "requests in flight")
		timeout     = flag.Duration("timeout", 30*time.Second, "timeout per request")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal("Invalid configuration: %v", err)
	}
	if err := logging.Setup(cfg.LogDir, "booru-archive.log", cfg.Debug); err != nil {
		logging.Fatal("Failed to set up logging: %v", err)
	}
	defer logging.Close()

	order, err := schema.ParseOrder(*orderFlag)
	if err != nil {
		logging.Fatal("%v", err)
	}
	var names []string
	if *sourcesFlag != "" {
		names = strings.Split(*sourcesFlag, ",")
	}
	sources, err := cfg.Clients(names...)
	if err != nil {
		logging.Fatal("Failed to load sources: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := &archiver{
		query:    parseTags(*tags),
		pages:    *pages,
		tagPages: *tagPages,
	}
	a.query.Order = order
	a.query.Limit = *limit

	if *toDB {
		if !cfg.DBEnabled() {
			logging.Fatal("-db needs DB_HOST")
		}
		logging.Info("Connecting to DB...")
		db, err := export.NewDB(ctx, cfg.DB)
		if err != nil {
			logging.Fatal("Failed to connect to DB (is it up?): %v", err)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logging.Fatal("%v", err)
		}
		a.db = db
	}
	if *download {
		if a.assets, err = openAssets(ctx, cfg); err != nil {
			logging.Fatal("Failed to open asset storage: %v", err)
		}
	}

	started := time.Now()
	a.run(ctx, sources, *concurrency, *timeout)
	logging.Info("Archived %d posts, stored %d assets, %d failures in %v",
		a.posts.Load(), a.stored.Load(), a.failed.Load(), time.Since(started).Round(time.Millisecond))
	if a.failed.Load() > 0 {
		os.Exit(1)
	}
}

func parseTags(raw string) booru.Query {
	var q booru.Query
	for _, tag := range strings.Fields(raw) {
		if excluded, ok := strings.CutPrefix(tag, "-"); ok {
			q.Exclude = append(q.Exclude, excluded)
		} else {
			q.Include = append(q.Include, tag)
		}
	}
	return q
}

func openAssets(ctx context.Context, cfg *config.Config) (sink.Sink, error) {
	if cfg.S3Enabled() {
		return sink.NewS3(ctx, cfg.S3)
	}
	if cfg.AssetDir == "" {
		return sink.NewDir("assets")
	}
	return sink.NewDir(cfg.AssetDir)
}

// run fetches every page of every source concurrently. Failures are logged and
// counted; they never cancel the other sources.
func (a *archiver) run(ctx context.Context, sources []booru.Source, concurrency int, timeout time.Duration) {
	var g errgroup.Group
	g.SetLimit(concurrency)

	for _, src := range sources {
		src := src
		for page := 1; page <= a.pages; page++ {
			page := page
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				a.archivePage(ctx, src, page, timeout)
				return nil
			})
		}
		for page := 1; page <= a.tagPages; page++ {
			page := page
			g.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				a.archiveTags(ctx, src, page, timeout)
				return nil
			})
		}
	}
	_ = g.Wait()
}

func (a *archiver) archivePage(ctx context.Context, src booru.Source, page int, timeout time.Duration) {
	q := a.query
	q.Page = page

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	posts, err := src.Search(reqCtx, q)
	cancel()
	if err != nil {
		a.failed.Add(1)
		logging.Error("%v", err)
		return
	}
	a.posts.Add(int64(len(posts)))
	logging.Info("%s page %d: %d posts", src.Name(), page, len(posts))

	if a.db != nil {
		if err := a.db.SavePosts(ctx, src.Name(), posts); err != nil {
			a.failed.Add(1)
			logging.Error("%s page %d: export failed: %v", src.Name(), page, err)
		}
	}
	if a.assets == nil {
		return
	}
	for _, post := range posts {
		if post.ResourceURL == "" {
			continue
		}
		reqCtx, cancel := context.WithTimeout(ctx, 10*timeout)
		res, err := sink.Store(reqCtx, src, post, a.assets)
		cancel()
		switch {
		case err != nil:
			a.failed.Add(1)
			logging.Error("%s post %d: %v", src.Name(), post.ID, err)
		case res == sink.Stored:
			a.stored.Add(1)
		}
	}
}

func (a *archiver) archiveTags(ctx context.Context, src booru.Source, page int, timeout time.Duration) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	tags, err := src.Tags(reqCtx, page, a.query.Limit)
	cancel()
	if booru.KindOf(err) == booru.KindUnsupported {
		logging.Debug("%s has no tag list", src.Name())
		return
	}
	if err != nil {
		a.failed.Add(1)
		logging.Error("%v", err)
		return
	}
	logging.Info("%s tag page %d: %d tags", src.Name(), page, len(tags))
	if a.db != nil {
		if err := a.db.SaveTags(ctx, src.Name(), tags); err != nil {
			a.failed.Add(1)
			logging.Error("%s tag page %d: export failed: %v", src.Name(), page, err)
		}
	}
}
