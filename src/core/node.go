package core

// An UnconfiguredTargetNode is a raw target node resolved against its cell
// and enclosing package metadata, but not yet configured for any platform.
type UnconfiguredTargetNode struct {
	Label      BuildLabel
	RuleType   string
	Visibility []string
	WithinView []string
	Attrs      []Attr
}

// ResolveRawNode builds an UnconfiguredTargetNode from a raw node, applying
// the enclosing package's defaults for anything the rule didn't set itself.
func ResolveRawNode(label BuildLabel, node *RawTargetNode, pkg *PackageMetadata) *UnconfiguredTargetNode {
	resolved := &UnconfiguredTargetNode{
		Label:      label,
		RuleType:   node.RuleType,
		Visibility: node.Visibility,
		WithinView: node.WithinView,
		Attrs:      node.Attrs,
	}
	if pkg != nil {
		if len(resolved.Visibility) == 0 {
			resolved.Visibility = pkg.Visibility
		}
		if len(resolved.WithinView) == 0 {
			resolved.WithinView = pkg.WithinView
		}
	}
	return resolved
}

// A ConfiguredTargetNode is a target node with a configuration applied.
// Configuration can determine that the target is incompatible with the
// requested platform, in which case Compatible is false and Reason says why.
type ConfiguredTargetNode struct {
	Label      ConfiguredLabel
	Node       *UnconfiguredTargetNode
	Compatible bool
	Reason     string
}
