package patterns

import "github.com/rysweet/azure-tenant-grapher-sub006/core/graphstore"

// UnknownType is the sentinel returned when no derivation rule applies.
const UnknownType = "Unknown"

// bookkeepingLabels are generic labels carried by every node for traversal;
// they never name an architectural type.
var bookkeepingLabels = map[string]struct{}{
	"Resource": {},
	"Node":     {},
	"Base":     {},
}

// DeriveTypeName resolves the canonical type name for a node. The rules
// apply in order:
//
//  1. A generic "Resource" label together with a provider-qualified type
//     string: the last '/'-delimited segment of that string.
//  2. Otherwise the first label that is not a bookkeeping label.
//  3. Otherwise UnknownType.
func DeriveTypeName(labels []string, qualifiedType string) string {
	if qualifiedType != "" {
		for _, l := range labels {
			if l == "Resource" {
				return graphstore.SimpleType(qualifiedType)
			}
		}
	}
	for _, l := range labels {
		if _, generic := bookkeepingLabels[l]; !generic {
			return l
		}
	}
	return UnknownType
}
