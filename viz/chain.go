// ABOUTME: Cascade chain visualization via graphviz
// ABOUTME: Renders a work item's associated-work chain as DOT or SVG
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/avriosolutions/gehn/models"
	"github.com/avriosolutions/gehn/workstate"
)

// ChainGraph builds a directed graph of the work item's cascade chain: every
// ancestor in associatedWork order, ending at the item itself, with the
// pending trigger's template as a dashed tail when one is still unfired.
func ChainGraph(ctx context.Context, item models.Entity) (*graphviz.Graphviz, *cgraph.Graph, error) {
	state, err := workstate.Decode(item.String("Description"))
	if err != nil {
		return nil, nil, fmt.Errorf("viz: %w", err)
	}
	if state == nil {
		return nil, nil, fmt.Errorf("viz: work item %s has no embedded state", item.String("WorkItemKey"))
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("viz: failed to create graphviz instance: %w", err)
	}
	graph, err := gv.Graph()
	if err != nil {
		gv.Close()
		return nil, nil, fmt.Errorf("viz: failed to create graph: %w", err)
	}
	graph.SetRankDir(cgraph.LRRank)

	var prev *cgraph.Node
	for _, ref := range state.Details.AssociatedWork {
		node, err := graph.CreateNodeByName(ref.Title)
		if err != nil {
			continue
		}
		node.SetShape("box")
		if prev != nil {
			_, _ = graph.CreateEdgeByName("", prev, node)
		}
		prev = node
	}

	self, err := graph.CreateNodeByName(item.String("Title"))
	if err == nil {
		self.SetShape("box")
		self.SetStyle("filled")
		if prev != nil {
			_, _ = graph.CreateEdgeByName("", prev, self)
		}
		prev = self
	}

	// Dashed edge to the next template when a trigger is still pending.
	for _, trigger := range state.FollowOnWorkItems {
		if trigger.IsTriggered {
			continue
		}
		next, err := graph.CreateNodeByName("template " + trigger.NextWorkTemplateKey)
		if err != nil {
			break
		}
		next.SetShape("box")
		if prev != nil {
			if edge, err := graph.CreateEdgeByName("", prev, next); err == nil {
				edge.SetStyle("dashed")
				edge.SetLabel(trigger.StatusForNextWorkToTrigger)
			}
		}
		break
	}

	return gv, graph, nil
}

// ChainDOT renders the chain in DOT format.
func ChainDOT(ctx context.Context, item models.Entity) (string, error) {
	gv, graph, err := ChainGraph(ctx, item)
	if err != nil {
		return "", err
	}
	defer gv.Close()
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.XDOT, &buf); err != nil {
		return "", fmt.Errorf("viz: failed to render DOT: %w", err)
	}
	return buf.String(), nil
}

// ChainSVG renders the chain as an SVG document.
func ChainSVG(ctx context.Context, item models.Entity) ([]byte, error) {
	gv, graph, err := ChainGraph(ctx, item)
	if err != nil {
		return nil, err
	}
	defer gv.Close()
	defer graph.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("viz: failed to render SVG: %w", err)
	}
	return buf.Bytes(), nil
}
