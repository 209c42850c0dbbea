package churn

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const ObjectiveLogistic = "binary:logistic"

var ErrInvalidEnsemble = errors.New("invalid_tree_ensemble")

// TreeNode is one node of a gradient-boosted tree in XGBoost's JSON dump
// layout. Leaves carry Leaf; split nodes carry the remaining fields.
type TreeNode struct {
	NodeID         int        `json:"nodeid"`
	Split          string     `json:"split,omitempty"`
	SplitCondition float64    `json:"split_condition,omitempty"`
	Yes            int        `json:"yes,omitempty"`
	No             int        `json:"no,omitempty"`
	Missing        int        `json:"missing,omitempty"`
	Leaf           *float64   `json:"leaf,omitempty"`
	Children       []TreeNode `json:"children,omitempty"`
}

// EnsembleArtifact is the on-disk form of a trained classifier.
type EnsembleArtifact struct {
	Features  []string   `json:"features"`
	BaseScore float64    `json:"base_score"`
	Objective string     `json:"objective"`
	Trees     []TreeNode `json:"trees"`
}

type compiledNode struct {
	leaf      bool
	value     float64
	feature   int
	condition float64
	yes       int
	no        int
	missing   int
}

type compiledTree []compiledNode

// TreeEnsemble is a Classifier backed by gradient-boosted regression trees
// with a logistic link.
type TreeEnsemble struct {
	features  []string
	baseScore float64
	trees     []compiledTree
}

// LoadTreeEnsemble reads an ensemble artifact from path.
func LoadTreeEnsemble(path string) (*TreeEnsemble, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open churn model: %w", err)
	}
	defer f.Close()
	return DecodeTreeEnsemble(f)
}

func DecodeTreeEnsemble(r io.Reader) (*TreeEnsemble, error) {
	var artifact EnsembleArtifact
	if err := json.NewDecoder(r).Decode(&artifact); err != nil {
		return nil, fmt.Errorf("decode churn model: %w", err)
	}
	return NewTreeEnsemble(artifact)
}

func NewTreeEnsemble(artifact EnsembleArtifact) (*TreeEnsemble, error) {
	if len(artifact.Features) == 0 {
		return nil, fmt.Errorf("%w: no features", ErrInvalidEnsemble)
	}
	if artifact.Objective != "" && artifact.Objective != ObjectiveLogistic {
		return nil, fmt.Errorf("%w: unsupported objective %q", ErrInvalidEnsemble, artifact.Objective)
	}
	if artifact.BaseScore <= 0 || artifact.BaseScore >= 1 {
		return nil, fmt.Errorf("%w: base_score must be in (0, 1)", ErrInvalidEnsemble)
	}
	if len(artifact.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrInvalidEnsemble)
	}

	index := make(map[string]int, len(artifact.Features))
	for i, name := range artifact.Features {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: duplicate feature %q", ErrInvalidEnsemble, name)
		}
		index[name] = i
	}

	trees := make([]compiledTree, 0, len(artifact.Trees))
	for i, root := range artifact.Trees {
		tree, err := compileTree(root, index, len(artifact.Features))
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidEnsemble, i, err)
		}
		trees = append(trees, tree)
	}

	return &TreeEnsemble{
		features:  append([]string(nil), artifact.Features...),
		baseScore: artifact.BaseScore,
		trees:     trees,
	}, nil
}

func (e *TreeEnsemble) Features() []string {
	return append([]string(nil), e.features...)
}

func (e *TreeEnsemble) PredictProba(vector []float64) (float64, error) {
	if len(vector) != len(e.features) {
		return 0, &ModelInputError{
			Reason: fmt.Sprintf("expected %d features, got %d", len(e.features), len(vector)),
		}
	}

	margin := logit(e.baseScore)
	for _, tree := range e.trees {
		margin += tree.eval(vector)
	}
	return sigmoid(margin), nil
}

func (t compiledTree) eval(vector []float64) float64 {
	i := 0
	for {
		n := t[i]
		if n.leaf {
			return n.value
		}
		x := vector[n.feature]
		switch {
		case math.IsNaN(x):
			i = n.missing
		case x < n.condition:
			i = n.yes
		default:
			i = n.no
		}
	}
}

// compileTree flattens the nested dump into a slice addressed by position.
// Node ids are remapped so evaluation never needs a map lookup.
func compileTree(root TreeNode, index map[string]int, width int) (compiledTree, error) {
	byID := make(map[int]TreeNode)
	var collect func(n TreeNode) error
	collect = func(n TreeNode) error {
		if _, dup := byID[n.NodeID]; dup {
			return fmt.Errorf("duplicate node id %d", n.NodeID)
		}
		byID[n.NodeID] = n
		for _, c := range n.Children {
			if err := collect(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(root); err != nil {
		return nil, err
	}

	pos := make(map[int]int, len(byID))
	order := make([]int, 0, len(byID))
	queue := []int{root.NodeID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := pos[id]; seen {
			continue
		}
		n, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("node %d not found", id)
		}
		pos[id] = len(order)
		order = append(order, id)
		if n.Leaf == nil {
			queue = append(queue, n.Yes, n.No, n.Missing)
		}
	}

	tree := make(compiledTree, len(order))
	for i, id := range order {
		n := byID[id]
		if n.Leaf != nil {
			tree[i] = compiledNode{leaf: true, value: *n.Leaf}
			continue
		}
		feature, err := resolveFeature(n.Split, index, width)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		yes, no, missing := pos[n.Yes], pos[n.No], pos[n.Missing]
		if yes <= i || no <= i || missing <= i {
			return nil, fmt.Errorf("node %d: branches must point to descendants", id)
		}
		tree[i] = compiledNode{
			feature:   feature,
			condition: n.SplitCondition,
			yes:       yes,
			no:        no,
			missing:   missing,
		}
	}
	return tree, nil
}

// resolveFeature accepts either a trained feature name or XGBoost's positional
// "fN" form.
func resolveFeature(split string, index map[string]int, width int) (int, error) {
	if i, ok := index[split]; ok {
		return i, nil
	}
	if strings.HasPrefix(split, "f") {
		if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < width {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}

func logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
