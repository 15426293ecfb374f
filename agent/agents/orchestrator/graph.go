package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	nodex "github.com/tanpawarit/agentic-services/agent/nodes"
)

func (o *Orchestrator) compileHandleChatGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_context",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResolveContext(ctx, in, o.resolver)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_context: %w", err)
	}

	if err := graph.AddLambdaNode("route",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Route(ctx, in, o.models)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode("ensure_session",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.EnsureSession(ctx, in, o.resolver, o.storeTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node ensure_session: %w", err)
	}

	if err := graph.AddLambdaNode("persist_user_message",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistUserMessage(ctx, in, o.messages, o.storeTimeout)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_user_message: %w", err)
	}

	if err := graph.AddLambdaNode("run_specialist",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RunSpecialist(ctx, in, o.models)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_specialist: %w", err)
	}

	if err := graph.AddLambdaNode("persist_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PersistReply(ctx, in, o.messages, o.storeTimeout, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist_reply: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "resolve_context"},
		{"resolve_context", "route"},
		{"route", "ensure_session"},
		{"ensure_session", "persist_user_message"},
		{"persist_user_message", "run_specialist"},
		{"run_specialist", "persist_reply"},
		{"persist_reply", "finalize_reply"},
		{"finalize_reply", compose.END},
	}

	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_chat"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}
