package replicator

import (
	"testing"

	"github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"
)

func TestConfigurationSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b graphstore.Resource
		want float64
	}{
		{
			name: "identical config",
			a:    graphstore.Resource{Location: "eastus", SKU: "Standard_D2s", Tags: map[string]string{"env": "prod"}},
			b:    graphstore.Resource{Location: "eastus", SKU: "Standard_D4s", Tags: map[string]string{"env": "prod"}},
			want: 1.0,
		},
		{
			name: "location only",
			a:    graphstore.Resource{Location: "eastus"},
			b:    graphstore.Resource{Location: "eastus"},
			want: 0.5,
		},
		{
			name: "sku tier only",
			a:    graphstore.Resource{SKU: "Premium_P1"},
			b:    graphstore.Resource{SKU: "Premium_P2"},
			want: 0.3,
		},
		{
			name: "nothing in common",
			a:    graphstore.Resource{Location: "eastus", SKU: "Standard_D2s", Tags: map[string]string{"env": "prod"}},
			b:    graphstore.Resource{Location: "westus", SKU: "Premium_P1", Tags: map[string]string{"env": "dev"}},
			want: 0,
		},
		{
			name: "empty resources",
			a:    graphstore.Resource{},
			b:    graphstore.Resource{},
			want: 0,
		},
		{
			name: "partial tag overlap",
			a:    graphstore.Resource{Tags: map[string]string{"env": "prod", "team": "core"}},
			b:    graphstore.Resource{Tags: map[string]string{"env": "prod", "team": "web"}},
			// Jaccard = 1/3.
			want: 0.2 / 3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := configurationSimilarity(tt.a, tt.b)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("similarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSKUTier(t *testing.T) {
	tests := []struct {
		sku  string
		want string
	}{
		{"Standard_D2s_v3", "Standard"},
		{"Premium_P1", "Premium"},
		{"Basic", "Basic"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := skuTier(tt.sku); got != tt.want {
			t.Errorf("skuTier(%q) = %q, want %q", tt.sku, got, tt.want)
		}
	}
}

func TestOrderByCoherencePutsClusterFirst(t *testing.T) {
	cluster := func(id string) Instance {
		return Instance{ID: id, Resources: []graphstore.Resource{
			{ID: id + "-r", Location: "eastus", SKU: "Standard_D2s"},
		}}
	}
	outlier := Instance{ID: "z-outlier", Resources: []graphstore.Resource{
		{ID: "z-r", Location: "australiaeast", SKU: "Premium_P1"},
	}}

	ordered := orderByCoherence([]Instance{outlier, cluster("a"), cluster("b"), cluster("c")})
	if ordered[len(ordered)-1].ID != "z-outlier" {
		t.Errorf("outlier should sort last, got order %v", []string{ordered[0].ID, ordered[1].ID, ordered[2].ID, ordered[3].ID})
	}
}
