// Package constellation clusters the site's cross-link graph so related
// pages can be surveyed together.
package constellation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"faithatlas/internal/content"
)

const maxClusterSample = 40

// Edge is a cross-link between two pages.
type Edge = content.Edge

type ClusterMember struct {
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	Category string `json:"category,omitempty"`
	Outbound int    `json:"outbound"`
}

type Cluster struct {
	ID            int             `json:"id"`
	Size          int             `json:"size"`
	Categories    []string        `json:"categories"`
	Sample        []ClusterMember `json:"sample"`
	InternalLinks int             `json:"internal_links"`
	ExternalLinks int             `json:"external_links"`
}

type ClusterLink struct {
	Source int `json:"source"`
	Target int `json:"target"`
	Weight int `json:"weight"`
}

type Totals struct {
	Pages    int `json:"pages"`
	Links    int `json:"links"`
	Clusters int `json:"clusters"`
}

// Graph is a cluster-level view of the site. The same pages always produce
// the same graph.
type Graph struct {
	Totals   Totals        `json:"totals"`
	Clusters []Cluster     `json:"clusters"`
	Links    []ClusterLink `json:"links"`
}

type clusterStats struct {
	members       []ClusterMember
	categories    []string
	seenCategory  map[string]struct{}
	internalLinks int
	externalLinks int
}

type clusterPair struct {
	a int
	b int
}

// FromPages indexes pages into a catalog and clusters its link graph.
func FromPages(pages []*content.Page) (Graph, error) {
	catalog, err := content.NewCatalog(pages)
	if err != nil {
		return Graph{}, err
	}
	return Build(catalog), nil
}

// Export clusters catalog and writes the graph as JSON to outPath.
func Export(catalog *content.Catalog, outPath string) (Graph, error) {
	g := Build(catalog)
	if err := write(outPath, g); err != nil {
		return Graph{}, err
	}
	return g, nil
}

// Build clusters the catalog's cross-link graph.
func Build(catalog *content.Catalog) Graph {
	pages := catalog.Pages()
	edges := catalog.Graph()

	outbound := make(map[string]int, len(pages))
	for _, edge := range edges {
		outbound[edge.Source]++
	}

	slugs := make([]string, len(pages))
	for i, p := range pages {
		slugs[i] = p.Slug
	}

	clusterAssignments := computeLouvainClusters(slugs, edges)

	statsByCluster := make(map[int]*clusterStats)

	for _, p := range pages {
		clusterID, ok := clusterAssignments[p.Slug]
		if !ok {
			continue
		}
		stats := statsByCluster[clusterID]
		if stats == nil {
			stats = &clusterStats{seenCategory: make(map[string]struct{})}
			statsByCluster[clusterID] = stats
		}
		stats.members = append(stats.members, ClusterMember{
			Slug:     p.Slug,
			Title:    p.Title,
			Category: p.Category,
			Outbound: outbound[p.Slug],
		})
		if p.Category != "" {
			if _, seen := stats.seenCategory[p.Category]; !seen {
				stats.seenCategory[p.Category] = struct{}{}
				stats.categories = append(stats.categories, p.Category)
			}
		}
	}

	linkWeights := make(map[clusterPair]int)

	for _, edge := range edges {
		srcCluster, okSrc := clusterAssignments[edge.Source]
		dstCluster, okDst := clusterAssignments[edge.Target]
		if !okSrc || !okDst {
			continue
		}
		if srcCluster == dstCluster {
			if stats := statsByCluster[srcCluster]; stats != nil {
				stats.internalLinks++
			}
			continue
		}
		pair := clusterPair{a: srcCluster, b: dstCluster}
		if pair.a > pair.b {
			pair.a, pair.b = pair.b, pair.a
		}
		linkWeights[pair]++

		if stats := statsByCluster[srcCluster]; stats != nil {
			stats.externalLinks++
		}
		if stats := statsByCluster[dstCluster]; stats != nil {
			stats.externalLinks++
		}
	}

	clusterIDs := make([]int, 0, len(statsByCluster))
	for id := range statsByCluster {
		clusterIDs = append(clusterIDs, id)
	}

	sort.Slice(clusterIDs, func(i, j int) bool {
		statsI := statsByCluster[clusterIDs[i]]
		statsJ := statsByCluster[clusterIDs[j]]
		if len(statsI.members) == len(statsJ.members) {
			return clusterIDs[i] < clusterIDs[j]
		}
		return len(statsI.members) > len(statsJ.members)
	})

	clusters := make([]Cluster, 0, len(clusterIDs))

	for _, id := range clusterIDs {
		stats := statsByCluster[id]
		sort.SliceStable(stats.members, func(i, j int) bool {
			if stats.members[i].Outbound == stats.members[j].Outbound {
				return stats.members[i].Slug < stats.members[j].Slug
			}
			return stats.members[i].Outbound > stats.members[j].Outbound
		})
		sampleCount := min(len(stats.members), maxClusterSample)
		sample := make([]ClusterMember, sampleCount)
		copy(sample, stats.members[:sampleCount])

		categories := stats.categories
		if categories == nil {
			categories = []string{}
		}

		clusters = append(clusters, Cluster{
			ID:            id,
			Size:          len(stats.members),
			Categories:    categories,
			Sample:        sample,
			InternalLinks: stats.internalLinks,
			ExternalLinks: stats.externalLinks,
		})
	}

	links := make([]ClusterLink, 0, len(linkWeights))
	for pair, weight := range linkWeights {
		links = append(links, ClusterLink{Source: pair.a, Target: pair.b, Weight: weight})
	}
	sort.Slice(links, func(i, j int) bool {
		if links[i].Weight == links[j].Weight {
			if links[i].Source == links[j].Source {
				return links[i].Target < links[j].Target
			}
			return links[i].Source < links[j].Source
		}
		return links[i].Weight > links[j].Weight
	})

	return Graph{
		Totals: Totals{
			Pages:    len(pages),
			Links:    len(edges),
			Clusters: len(clusters),
		},
		Clusters: clusters,
		Links:    links,
	}
}

func write(outPath string, g Graph) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return err
	}

	return os.WriteFile(outPath, data, 0o644)
}
