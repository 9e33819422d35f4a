package recommendation

import (
	"fmt"
	"log/slog"

	"github.com/meetsy/meetsy/internal/types"
)

// HubSelector derives candidate meeting areas from a group profile. The
// centroid of resolvable member locations is always produced; when members
// are spread far apart, two cluster hubs are added so candidates can be
// generated near each pocket of members.
type HubSelector struct {
	logger  *slog.Logger
	splitKm float64
}

func NewHubSelector(splitKm float64, logger *slog.Logger) *HubSelector {
	return &HubSelector{
		logger:  logger,
		splitKm: splitKm,
	}
}

func (s *HubSelector) SelectHubs(profile *types.GroupPreferenceProfile) []types.Hub {
	centroid := profile.Centroid
	hubs := []types.Hub{{
		ID:    "centroid",
		Name:  "Group midpoint",
		Lat:   centroid.Lat,
		Lng:   centroid.Lng,
		Kind:  types.HubKindCentroid,
		Score: 1.0,
	}}

	points := profile.ResolvedLocations
	if len(points) < 4 || maxPairwiseKm(points) <= s.splitKm {
		return hubs
	}

	clusterA, clusterB := twoMeans(points)
	// Only split when both clusters hold a meaningful share of members.
	if len(clusterA) < 2 || len(clusterB) < 2 {
		return hubs
	}

	total := float64(len(points))
	for i, cluster := range [][]types.GeoPoint{clusterA, clusterB} {
		center := types.Centroid(cluster)
		hubs = append(hubs, types.Hub{
			ID:    fmt.Sprintf("cluster-%d", i+1),
			Name:  fmt.Sprintf("Cluster %c midpoint", 'A'+i),
			Lat:   center.Lat,
			Lng:   center.Lng,
			Kind:  types.HubKindCluster,
			Score: float64(len(cluster)) / total,
		})
	}
	s.logger.Debug("Split member locations into cluster hubs",
		slog.Int("cluster_a", len(clusterA)),
		slog.Int("cluster_b", len(clusterB)))
	return hubs
}

func maxPairwiseKm(points []types.GeoPoint) float64 {
	var max float64
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if d := types.HaversineKm(points[i], points[j]); d > max {
				max = d
			}
		}
	}
	return max
}

// twoMeans partitions points into two clusters. Seeds are the farthest pair,
// so the result is deterministic for a given input order.
func twoMeans(points []types.GeoPoint) ([]types.GeoPoint, []types.GeoPoint) {
	seedA, seedB := farthestPair(points)
	centerA, centerB := points[seedA], points[seedB]

	var clusterA, clusterB []types.GeoPoint
	for iter := 0; iter < 8; iter++ {
		clusterA = clusterA[:0]
		clusterB = clusterB[:0]
		for _, p := range points {
			if types.HaversineKm(p, centerA) <= types.HaversineKm(p, centerB) {
				clusterA = append(clusterA, p)
			} else {
				clusterB = append(clusterB, p)
			}
		}
		if len(clusterA) == 0 || len(clusterB) == 0 {
			break
		}
		centerA = types.Centroid(clusterA)
		centerB = types.Centroid(clusterB)
	}
	return clusterA, clusterB
}

func farthestPair(points []types.GeoPoint) (int, int) {
	bestI, bestJ := 0, 1
	var best float64
	for i := range points {
		for j := i + 1; j < len(points); j++ {
			if d := types.HaversineKm(points[i], points[j]); d > best {
				best = d
				bestI, bestJ = i, j
			}
		}
	}
	return bestI, bestJ
}
