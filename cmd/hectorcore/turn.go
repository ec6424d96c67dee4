package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hectorcore/hectorcore/internal/types"
)

// runTurn drives one user turn to completion, including the
// human-in-the-loop approve/deny prompt for any turn that pauses on a
// risky tool call (spec §4.7/§4.3). It is shared by the ask and chat
// commands so both present the same approval UX.
func runTurn(ctx context.Context, a *app, sessionID, text string) error {
	_ = a.history.Append(sessionID, string(types.RoleUser), "", text)

	result := a.supervisor.Handle(ctx, types.Request{Text: text, SessionID: sessionID})

	for result.Pending != nil {
		approved, err := promptApproval(*result.Pending)
		if err != nil {
			return err
		}
		if approved {
			result = a.supervisor.Approve(ctx, sessionID)
		} else {
			result = a.supervisor.Reject(ctx, sessionID)
		}
	}

	if result.Err != nil {
		_ = a.history.Append(sessionID, string(types.RoleAssistant), "", fmt.Sprintf("[error] %v", result.Err))
		return result.Err
	}

	pub := result.Publication
	_ = a.history.Append(sessionID, string(types.RoleAssistant), "", pub.Answer)
	printPublication(pub)
	return nil
}

// promptApproval blocks on stdin for a y/n decision on a pending tool
// call, mirroring the teacher's own interactive-confirmation idiom in
// pkg/agent/tool_approval.go (a blocking terminal prompt, not a
// background channel).
func promptApproval(pending types.ApprovalRequest) (bool, error) {
	fmt.Printf("\n⚠️  approval required: tool %q (assurance %s)\n", pending.ToolName, pending.Assurance)
	if pending.Rationale != "" {
		fmt.Printf("   rationale: %s\n", pending.Rationale)
	}
	fmt.Print("   approve? [y/N]: ")

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("hectorcore: read approval decision: %w", err)
	}
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes", nil
}

func printPublication(pub *types.Publication) {
	fmt.Printf("\n%s\n", pub.Answer)
	fmt.Printf("(scale=%s model=%s tools=%d evidence=%d reliability=%.2f)\n",
		pub.Scale, pub.Model, pub.ToolCallCount, pub.EvidenceCount, pub.Reliability)
}
