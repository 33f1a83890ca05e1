package geo

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/keyword-cli/internal/config"
	"github.com/sells-group/keyword-cli/internal/model"
	"github.com/sells-group/keyword-cli/internal/terms"
	"github.com/sells-group/keyword-cli/pkg/naver"
)

// Resolver builds business contexts from input records.
type Resolver struct {
	maps      MapsProvider
	searcher  *Searcher
	extractor *terms.Extractor
	cfg       *config.Config
}

// NewResolver creates a Resolver. local may be nil.
func NewResolver(maps MapsProvider, local LocalSearcher, cfg *config.Config) *Resolver {
	return &Resolver{
		maps:      maps,
		searcher:  NewSearcher(maps, local, cfg.Search, cfg.POIs),
		extractor: terms.NewExtractor(cfg.Keywords, cfg.IndustrySynonyms),
		cfg:       cfg,
	}
}

// run holds the lookup caches of a single BuildContexts call.
type run struct {
	geocodes *runCache[*naver.Coordinates]
	reverses *runCache[[]string]
	filter   POIFilter
}

// BuildContexts resolves each record into a context. Records with no address
// or whose address cannot be geocoded are skipped. Output order follows input
// order regardless of search.concurrency. Lookups are cached per call: one
// geocode per distinct address and one reverse geocode per distinct point.
func (r *Resolver) BuildContexts(ctx context.Context, records []model.BusinessRecord, filter POIFilter) ([]model.BusinessContext, error) {
	state := &run{
		geocodes: newRunCache[*naver.Coordinates](),
		reverses: newRunCache[[]string](),
		filter:   filter,
	}

	resolved := make([]*model.BusinessContext, len(records))
	workers := max(r.cfg.Search.Concurrency, 1)
	if workers == 1 {
		for i, rec := range records {
			if err := ctx.Err(); err != nil {
				return nil, eris.Wrap(err, "geo: build contexts")
			}
			resolved[i] = r.resolve(ctx, state, rec)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for i, rec := range records {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				resolved[i] = r.resolve(gctx, state, rec)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, eris.Wrap(err, "geo: build contexts")
		}
	}

	contexts := make([]model.BusinessContext, 0, len(records))
	for _, bc := range resolved {
		if bc != nil {
			contexts = append(contexts, *bc)
		}
	}
	zap.L().Info("business contexts resolved",
		zap.Int("records", len(records)),
		zap.Int("contexts", len(contexts)),
		zap.Int("distinct_addresses", state.geocodes.len()),
		zap.Int("distinct_points", state.reverses.len()),
	)
	return contexts, nil
}

// resolve builds the context for one record, or returns nil when the record
// must be skipped.
func (r *Resolver) resolve(ctx context.Context, state *run, rec model.BusinessRecord) *model.BusinessContext {
	name := strings.TrimSpace(rec.Name)
	address := strings.TrimSpace(rec.Address)
	serviceText := strings.TrimSpace(rec.ServiceText)
	if address == "" {
		zap.L().Warn("skipping record without address", zap.String("name", name))
		return nil
	}

	coords := state.geocodes.get(address, func() *naver.Coordinates {
		c, err := r.maps.Geocode(ctx, address)
		if err != nil {
			zap.L().Warn("geocode request failed", zap.String("address", address), zap.Error(err))
			return nil
		}
		return c
	})
	if coords == nil {
		zap.L().Warn("geocode failed, skipping record", zap.String("name", name), zap.String("address", address))
		return nil
	}

	pointKey := strconv.FormatFloat(coords.Longitude, 'f', -1, 64) + "," + strconv.FormatFloat(coords.Latitude, 'f', -1, 64)
	regions := state.reverses.get(pointKey, func() []string {
		resp, err := r.maps.ReverseGeocode(ctx, coords.Longitude, coords.Latitude)
		if err != nil {
			zap.L().Warn("reverse geocode failed", zap.String("point", pointKey), zap.Error(err))
			return []string{}
		}
		return ExtractRegionKeywords(resp)
	})

	services := r.extractor.ServiceTerms(name, serviceText)
	industries := r.extractor.DeriveIndustries(serviceText, services)
	competitionQuery := serviceText
	if len(industries) > 0 {
		competitionQuery = industries[0]
	}

	radius := r.searcher.PickCompetitionRadius(ctx, competitionQuery, *coords, regions)
	poiCfg := r.cfg.POIs
	subway := r.searcher.FetchPOIs(ctx, poiCfg.SubwayQueries, *coords, radius, regions, state.filter.For(CategorySubway))
	landmark := r.searcher.FetchPOIs(ctx, poiCfg.LandmarkQueries, *coords, radius, regions, state.filter.For(CategoryLandmark))
	pois := FilterPOIs(append(subway, landmark...), terms.AddressTokens(address, regions))

	regionSet := terms.NewOrderedSet(regions...)
	if r.cfg.Region.IncludePOI {
		regionSet.Add(pois...)
	}
	if r.cfg.Region.CombineTerms {
		shortened := ShortenRegionTerms(regionSet.Items(), r.cfg.Region.ShortenSuffixes)
		regionSet.Add(shortened...)
		regionSet.Add(CombineRegionTerms(shortened)...)
	}

	zap.L().Debug("business context built",
		zap.String("name", name),
		zap.Float64("radius_km", radius),
		zap.Int("regions", regionSet.Len()),
		zap.Int("pois", len(pois)),
	)
	return &model.BusinessContext{
		Name:           name,
		Address:        address,
		Services:       services,
		Industries:     industries,
		RegionKeywords: regionSet.Items(),
		POIKeywords:    pois,
		Longitude:      coords.Longitude,
		Latitude:       coords.Latitude,
	}
}
