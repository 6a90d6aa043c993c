package config

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			DataDir:  "data",
			Scripts:  "scripts",
			Audio:    "audio",
			Episodes: "episodes",
			Logs:     "logs",
		},
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   "data/content.db",
		},
		Models: ModelsConfig{
			Digest:       ModelConfig{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 2000},
			Script:       ModelConfig{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 4000},
			Screenwriter: ModelConfig{Model: "gpt-4o-mini", Temperature: 0.9, MaxTokens: 8000},
			Distill:      ModelConfig{Model: "gpt-4o-mini", Temperature: 0.7, MaxTokens: 1000},
			Briefing:     ModelConfig{Model: "gpt-4o-mini", Temperature: 0.5, MaxTokens: 2000},
			Audio:        AudioModelConfig{Model: "gpt-4o-audio-preview", Format: "wav"},
		},
		Speakers: map[string]SpeakerConfig{
			"1": {
				Name:        "Elly",
				Voice:       "shimmer",
				Personality: "an energetic and enthusiastic tech expert with vivid descriptions and expressive delivery",
			},
			"2": {
				Name:        "Tim",
				Voice:       "onyx",
				Personality: "an analytical, thoughtful thinker who brings a different perspective and pushes for deeper exploration",
			},
		},
		Styles: StylesConfig{
			Intro:   "energetic and engaging, with friendly banter between hosts",
			Content: "informative and professional, maintaining audience interest",
			Outro:   "warm and inviting, encouraging listener engagement",
		},
		Prompts: PromptsConfig{
			Digest:       PromptConfig{System: digestSystem, User: digestUser},
			Script:       PromptConfig{System: scriptSystem, User: scriptUser},
			Screenwriter: PromptConfig{System: screenwriterSystem, User: screenwriterUser},
			Distill:      PromptConfig{System: distillSystem, User: distillUser},
			Briefing:     PromptConfig{System: briefingSystem, User: "{{.Content}}"},
			Speech:       PromptConfig{System: speechSystem, User: speechUser},
		},
		Timeline: TimelineConfig{
			Strategy:        "prepend-append",
			PauseMinMs:      300,
			PauseMaxMs:      700,
			FadeMs:          2000,
			HeadroomDB:      0.1,
			AmbientGainDB:   -25,
			MusicGainDB:     -15,
			OverlayWindowMs: 15000,
			FinalFadeOutMs:  5000,
			ExportFormat:    "wav",
		},
		Source: SourceConfig{
			WindowDays:  2,
			TimeZone:    "Europe/Zurich",
			DateLayout:  "02.01.2006",
			MaxPDFChars: 100000,
			ChunkSize:   4000,
			DigestItems: 3,
			DigestChars: 16000,
			Rewrite:     true,
		},
		OpenAI: OpenAIConfig{
			BaseURL:        "https://api.openai.com/v1",
			TimeoutSeconds: 120,
		},
		NATS: NATSConfig{
			URL:    "nats://127.0.0.1:4222",
			Bucket: "PODCAST_EPISODES",
		},
	}
}

const digestSystem = `You are a professional content writer who turns several articles into one short, engaging summary post.`

const digestUser = `Write a summary post covering the following articles. Keep the key facts of each one and link them into a single narrative.

{{.Content}}`

const scriptSystem = `You are a podcast script writer. Write a natural, engaging conversation between two seasoned podcast hosts.

Format every line exactly like this:
<Speaker 1> [What speaker 1 says]
<Speaker 2> [What speaker 2 says]
Use <Speaker 1> and <Speaker 2> exactly as shown.

The script has three parts: an introduction, the main discussion and an outro.`

const scriptUser = `Write a podcast script with these specifications.
Use short back and forth, natural fillers such as "mm-hmm" used sparingly, active listening cues like "I see" or "Right", follow up questions and personal anecdotes.

Introduction style: {{.Styles.Intro}}
Main content style: {{.Styles.Content}}
Outro style: {{.Styles.Outro}}
{{range .Hosts}}
{{.Label}} is called {{.Name}}.{{end}}

Content to discuss:
{{.Content}}

Transitions between sections must feel natural. The main discussion is the longest part.`

const screenwriterSystem = `You are an award-winning screenwriter who has worked with many successful podcasters. Rewrite the transcript you are given for a text-to-speech pipeline so it sounds like a real live podcast: a catchy opening, interruptions, short hand-offs, "hmm" and "umm", and clarification questions cutting in mid-sentence.
{{range .Hosts}}
{{.Label}} is {{.Personality}}.{{end}}

Answer with a Python-style list of tuples and nothing else. Each tuple holds the speaker label, the line, and a direction for how to say it:
[
    ("Speaker 1", "Line of speaker 1", "How to deliver it."),
    ("Speaker 2", "Line of speaker 2", "How to deliver it."),
]`

const screenwriterUser = `Here is the podcast transcript:

{{.Content}}`

const distillSystem = `You are a text pre-processor. Turn raw extracted text into crisp, non-redundant prose a podcast writer can use.
Clean up broken newlines and formatting, remove LaTeX and needless technical detail, drop anything irrelevant for a podcast and keep the core message.
Do not add markdown or special characters. Start directly with the processed text.`

const distillUser = `Here is the text to process:

{{.Content}}`

const briefingSystem = `You are a research analyst. Turn the text into a concise, information-dense briefing with no filler. Identify the overarching themes, outline the key ideas that support them, summarize the essential information in a logical order, tag sections as <Introduction>, <Main> and <Conclusion>, and end with a keyword list.`

const speechSystem = `You are {{.Speaker.Name}}, {{.Speaker.Personality}}. Previous conversation: {{.History}}. Voice coaching for this line: {{.Note}}`

const speechUser = `Say exactly the following text in the appropriate voice, given the previous conversation and the voice coaching. Text to say: {{.Text}}`
