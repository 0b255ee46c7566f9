package generator

import (
	"fmt"
	"strings"
)

// 生成偏向确定性，修改允许稍多变化。
const (
	GenerateTemperature = 0.2
	ImproveTemperature  = 0.4
)

// BuildGeneratePrompt 生成“自然语言描述 → Mermaid”的提示词。
func BuildGeneratePrompt(description string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert in Mermaid diagrams. Convert the user's description into a single Mermaid diagram.\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Infer the diagram type (flowchart, sequenceDiagram, classDiagram, stateDiagram, erDiagram, timeline) from the description. Use `flowchart TD` when the description is ambiguous or describes a process.\n")
	sb.WriteString("2. Output ONLY Mermaid syntax. No markdown code fences, no introduction, no explanation.\n")
	sb.WriteString("3. Use correct syntax for the chosen type.\n")
	sb.WriteString("   - Flowcharts: define nodes first, then links, under the comments `%% Define Nodes` and `%% Define Links with Labels`.\n")
	sb.WriteString("   - Flowchart links carry labels with the pipe syntax: `A -->|label| B`. Keep labels short.\n")
	sb.WriteString("   - Use `[box]`, `(rounded)` and `{decision}` shapes where they fit.\n")
	sb.WriteString("   - Sequence diagrams use `participant`, `actor`, `->>`, `-->>`, `alt`, `loop`.\n")
	sb.WriteString("Example flowchart:\n")
	sb.WriteString("flowchart TD\n  %% Define Nodes\n  A[Node A]\n  B(Node B)\n\n  %% Define Links with Labels\n  A -->|link to B| B\n")

	return Prompt{
		System:      sb.String(),
		User:        description,
		Temperature: GenerateTemperature,
	}
}

// BuildImprovePrompt 生成“当前图 + 修改指令 → 新图”的提示词。
func BuildImprovePrompt(currentDiagram, instruction string) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert in Mermaid diagrams. You receive an existing diagram and an instruction describing how to change it.\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Read the current diagram and the instruction, then apply the change.\n")
	sb.WriteString("2. Keep the current diagram type unless the instruction asks for a different one.\n")
	sb.WriteString("3. If the current diagram is malformed, repair it where possible; otherwise regenerate it from the instruction.\n")
	sb.WriteString("4. Output ONLY the complete updated Mermaid syntax. No markdown code fences, no explanation.\n")

	user := fmt.Sprintf("Current diagram:\n```mermaid\n%s\n```\n\nInstruction: %s\nReturn the full updated diagram.", currentDiagram, instruction)

	return Prompt{
		System:      sb.String(),
		User:        user,
		Temperature: ImproveTemperature,
	}
}
