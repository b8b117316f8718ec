package model

// AISettings captures the AI-related switches of a bot definition.
type AISettings struct {
	UseModelKnowledge bool   `json:"use_model_knowledge"`
	FileAnalysis      bool   `json:"file_analysis"`
	SemanticSearch    bool   `json:"semantic_search"`
	ContentModeration string `json:"content_moderation"`
	OptInLatestModels bool   `json:"opt_in_latest_models"`
}

// ComponentSummary is one component of the bot definition inventory.
type ComponentSummary struct {
	Kind        string `json:"kind"`
	DisplayName string `json:"display_name"`
	SchemaName  string `json:"schema_name"`
	State       string `json:"state"`
	TriggerKind string `json:"trigger_kind,omitempty"`
	DialogKind  string `json:"dialog_kind,omitempty"`
	ActionKind  string `json:"action_kind,omitempty"`
	Description string `json:"description,omitempty"`
}

// GptInfo is the generative component's configuration.
type GptInfo struct {
	DisplayName          string `json:"display_name"`
	Description          string `json:"description,omitempty"`
	Instructions         string `json:"instructions,omitempty"`
	ModelHint            string `json:"model_hint,omitempty"`
	KnowledgeSourcesKind string `json:"knowledge_sources_kind,omitempty"`
	WebBrowsing          bool   `json:"web_browsing"`
	CodeInterpreter      bool   `json:"code_interpreter"`
}

// TopicConnection is one BeginDialog edge between two topics.
type TopicConnection struct {
	SourceSchema  string `json:"source_schema"`
	SourceDisplay string `json:"source_display"`
	TargetSchema  string `json:"target_schema"`
	TargetDisplay string `json:"target_display"`
	Condition     string `json:"condition,omitempty"`
}

// BotProfile is the parsed bot definition: identity, configuration, and the
// component inventory. Produced by the config reader; the timeline engine
// itself only consumes the schema-name lookup derived alongside it.
type BotProfile struct {
	SchemaName       string             `json:"schema_name"`
	BotID            string             `json:"bot_id"`
	DisplayName      string             `json:"display_name"`
	Channels         []string           `json:"channels"`
	AISettings       AISettings         `json:"ai_settings"`
	RecognizerKind   string             `json:"recognizer_kind"`
	AgentModel       string             `json:"agent_model,omitempty"`
	Components       []ComponentSummary `json:"components"`
	IsOrchestrator   bool               `json:"is_orchestrator"`
	GptInfo          *GptInfo           `json:"gpt_info,omitempty"`
	TopicConnections []TopicConnection  `json:"topic_connections"`
}
