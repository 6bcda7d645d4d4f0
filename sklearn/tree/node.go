package tree

// TreeNode represents a node in the decision tree
type TreeNode struct {
	IsLeaf       bool      // Whether this is a leaf node
	LeafID       int       // Dense leaf index in [0, NLeaves) (leaf nodes)
	Feature      int       // Feature index for split (internal nodes)
	Threshold    float64   // Threshold value for split (internal nodes)
	Left         *TreeNode // Left child (values <= threshold)
	Right        *TreeNode // Right child (values > threshold)
	Value        float64   // Predicted value (leaf nodes - regression)
	ClassCounts  []int     // Class counts (leaf nodes - classification)
	PredictClass int       // Predicted class index (leaf nodes - classification)
	Impurity     float64   // Node impurity
	NSamples     int       // Number of samples at this node
	Depth        int       // Depth of this node in the tree
}

// leafFor routes one row to its terminal node.
func (n *TreeNode) leafFor(row func(feature int) float64) *TreeNode {
	node := n
	for !node.IsLeaf {
		if row(node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

func maxDepth(node *TreeNode) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return node.Depth
	}
	l, r := maxDepth(node.Left), maxDepth(node.Right)
	if l > r {
		return l
	}
	return r
}
