package patterns

// Definition is one predefined architectural pattern: a name, a human
// description, and the characteristic set of simplified resource types that
// realize it.
type Definition struct {
	Name        string
	Description string
	Types       []string
}

// catalog lists the recognized architecture patterns. Order is significant:
// detection results and pool assembly follow it, which fixes tie-breaking.
var catalog = []Definition{
	{
		Name:        "Web Application",
		Description: "App Service web workload with hosting plan, storage and telemetry",
		Types:       []string{"sites", "serverFarms", "storageAccounts", "components"},
	},
	{
		Name:        "Virtual Machine Workload",
		Description: "IaaS compute with attached disks, NICs and virtual network",
		Types:       []string{"virtualMachines", "disks", "networkInterfaces", "virtualNetworks"},
	},
	{
		Name:        "Kubernetes Service",
		Description: "Managed cluster with container registry and ingress networking",
		Types:       []string{"managedClusters", "registries", "virtualNetworks", "loadBalancers"},
	},
	{
		Name:        "Data Platform",
		Description: "Data integration pipeline over SQL and storage",
		Types:       []string{"factories", "servers", "databases", "storageAccounts"},
	},
	{
		Name:        "Event-Driven Messaging",
		Description: "Messaging backbone of namespaces, topics and event hubs",
		Types:       []string{"namespaces", "topics", "queues", "eventhubs"},
	},
	{
		Name:        "Networking Hub",
		Description: "Hub virtual network with gateways, firewall and routing",
		Types:       []string{"virtualNetworks", "virtualNetworkGateways", "azureFirewalls", "routeTables", "networkSecurityGroups"},
	},
	{
		Name:        "Identity and Secrets",
		Description: "Key vaults, managed identities and private connectivity",
		Types:       []string{"vaults", "userAssignedIdentities", "privateEndpoints"},
	},
	{
		Name:        "Monitoring and Observability",
		Description: "Application Insights and Log Analytics with alerting",
		Types:       []string{"components", "workspaces", "actionGroups", "metricAlerts"},
	},
	{
		Name:        "Database Tier",
		Description: "SQL servers with databases and pooled capacity",
		Types:       []string{"servers", "databases", "elasticPools", "failoverGroups"},
	},
	{
		Name:        "Storage and Backup",
		Description: "Storage accounts with recovery vaults and snapshots",
		Types:       []string{"storageAccounts", "vaults", "snapshots", "disks"},
	},
}

// Catalog returns the predefined pattern definitions in detection order.
func Catalog() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// DefinitionByName looks up a pattern definition.
func DefinitionByName(name string) (Definition, bool) {
	for _, def := range catalog {
		if def.Name == name {
			return def, true
		}
	}
	return Definition{}, false
}
