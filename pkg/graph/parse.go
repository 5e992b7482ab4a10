package graph

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/matzehuels/pathstep/pkg/errors"
)

// edgeRe frames an edge token as <from>-<to>:<weight>. The weight part is
// captured loosely so that bad weights report INVALID_WEIGHT, not MALFORMED_EDGE.
var edgeRe = regexp.MustCompile(`^([^-:]+)-([^-:]+):(.*)$`)

// Parse validates nodeText and edgeText and returns the canonical graph.
//
// Validation runs in order and stops at the first failure:
//  1. EMPTY_NODE_LIST if no non-empty node token remains after trimming.
//  2. DUPLICATE_NODE if a node id repeats.
//  3. For each non-empty edge token: MALFORMED_EDGE, UNKNOWN_NODE_REFERENCE,
//     then INVALID_WEIGHT.
//
// A blank edgeText yields a graph without edges.
func Parse(nodeText, edgeText string) (*Graph, error) {
	g, err := newGraph(SplitList(nodeText))
	if err != nil {
		return nil, err
	}

	for _, token := range SplitList(edgeText) {
		from, to, weight, err := parseEdge(token)
		if err != nil {
			return nil, err
		}
		name := from + "-" + to
		if !g.HasNode(from) || !g.HasNode(to) {
			return nil, errors.Invalid(errors.ErrCodeUnknownNodeRef, name,
				"edge %s references unknown node", name)
		}
		w, err := strconv.ParseInt(weight, 10, 64)
		if err != nil || w <= 0 || w > MaxWeight {
			return nil, errors.Invalid(errors.ErrCodeInvalidWeight, name,
				"invalid weight for edge %s", name)
		}
		g.setEdge(from, to, w)
	}
	return g, nil
}

// parseEdge splits a trimmed edge token into trimmed endpoints and the raw weight.
func parseEdge(token string) (from, to, weight string, err error) {
	m := edgeRe.FindStringSubmatch(token)
	if m == nil {
		return "", "", "", malformed(token)
	}
	from, to = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	if from == "" || to == "" {
		return "", "", "", malformed(token)
	}
	return from, to, strings.TrimSpace(m[3]), nil
}

func malformed(token string) error {
	return errors.Invalid(errors.ErrCodeMalformedEdge, token,
		"invalid edge format: %s. Use format 'A-B:5'", token)
}

// SplitList splits a comma-separated list, trims each token and drops empty ones.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
