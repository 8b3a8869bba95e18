package api

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"time"

	"github.com/serjvanilla/go-overpass"

	"bloomwatch/internal/domain/model"
	"bloomwatch/pkg/metrics"
)

const earthRadiusKm = 6371.0

// overpassQuerier is satisfied by *overpass.Client
type overpassQuerier interface {
	Query(query string) (overpass.Result, error)
}

type overpassGatewayImpl struct {
	client  overpassQuerier
	timeout time.Duration
	metrics *metrics.Collector
}

// NewOverpassGateway creates a SiteGateway over the Overpass API at endpoint
func NewOverpassGateway(endpoint string, maxParallel int, timeout time.Duration, collector *metrics.Collector) SiteGateway {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, maxParallel, httpClient)
	return &overpassGatewayImpl{
		client:  &client,
		timeout: timeout,
		metrics: collector,
	}
}

func (g *overpassGatewayImpl) FindBloomSites(ctx context.Context, lat, lon, radiusKm float64) ([]model.BloomSite, error) {
	radiusMeters := int(radiusKm * 1000)
	around := fmt.Sprintf("around:%d,%f,%f", radiusMeters, lat, lon)
	query := fmt.Sprintf(`
		[out:json][timeout:%d];
		(
			node["leisure"~"park|garden|nature_reserve"](%s);
			way["leisure"~"park|garden|nature_reserve"](%s);
			way["landuse"~"orchard|vineyard|meadow"](%s);
			node["boundary"="protected_area"](%s);
		);
		out body;
		>;
		out skel qt;
	`, int(g.timeout.Seconds()), around, around, around, around)

	timer := time.Now()
	result, err := g.executeQuery(ctx, query)
	g.metrics.RecordUpstream("overpass", err, time.Since(timer))
	if err != nil {
		return nil, err
	}

	return convertToBloomSites(result, lat, lon, radiusKm), nil
}

// executeQuery runs the blocking client call and gives up when ctx is done
func (g *overpassGatewayImpl) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	type queryResult struct {
		result overpass.Result
		err    error
	}

	done := make(chan queryResult, 1)
	go func() {
		result, err := g.client.Query(query)
		done <- queryResult{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return nil, model.Upstream(r.err, "overpass query failed")
		}
		return &r.result, nil
	}
}

func convertToBloomSites(result *overpass.Result, lat, lon, radiusKm float64) []model.BloomSite {
	sites := make([]model.BloomSite, 0)

	for _, node := range result.Nodes {
		if kind := siteKind(node.Tags); kind != "" {
			sites = appendSite(sites, node.ID, node.Tags["name"], kind, node.Lat, node.Lon, lat, lon, radiusKm)
		}
	}

	for _, way := range result.Ways {
		kind := siteKind(way.Tags)
		if kind == "" || len(way.Nodes) == 0 {
			continue
		}
		var sumLat, sumLon float64
		count := 0
		for _, node := range way.Nodes {
			if node == nil {
				continue
			}
			sumLat += node.Lat
			sumLon += node.Lon
			count++
		}
		if count == 0 {
			continue
		}
		sites = appendSite(sites, way.ID, way.Tags["name"], kind, sumLat/float64(count), sumLon/float64(count), lat, lon, radiusKm)
	}

	sort.Slice(sites, func(i, j int) bool {
		if sites[i].DistanceKm == sites[j].DistanceKm {
			return sites[i].ID < sites[j].ID
		}
		return sites[i].DistanceKm < sites[j].DistanceKm
	})
	return sites
}

func appendSite(sites []model.BloomSite, id int64, name, kind string, siteLat, siteLon, lat, lon, radiusKm float64) []model.BloomSite {
	distance := haversineKm(lat, lon, siteLat, siteLon)
	if distance > radiusKm {
		return sites
	}
	if name == "" {
		name = "Unnamed " + kind
	}
	return append(sites, model.BloomSite{
		ID:         id,
		Name:       name,
		Kind:       kind,
		Latitude:   siteLat,
		Longitude:  siteLon,
		DistanceKm: math.Round(distance*100) / 100,
	})
}

func siteKind(tags map[string]string) string {
	if v := tags["leisure"]; v == "park" || v == "garden" || v == "nature_reserve" {
		return v
	}
	if v := tags["landuse"]; v == "orchard" || v == "vineyard" || v == "meadow" {
		return v
	}
	if tags["boundary"] == "protected_area" {
		return "protected_area"
	}
	return ""
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
