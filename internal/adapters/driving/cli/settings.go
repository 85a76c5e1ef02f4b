package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/diligence/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, the document index and other options.

Use subcommands to configure specific settings or run the interactive wizard.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Interactive setup wizard",
	Long:  `Run an interactive wizard to configure all settings step by step.`,
	RunE:  runSettingsWizard,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Set the document index backend",
	Long: `Set the backend that indexes and searches uploaded documents.

Available backends:
  memory  - Keyword index held in memory (fastest, no setup required)
  sqlite  - SQLite full-text index on disk for the session
  chromem - Semantic vector index (requires embedding provider)
  openai  - Hosted OpenAI vector store (requires an OpenAI API key)`,
	RunE: runSettingsBackend,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider for the semantic index backend.`,
	RunE:  runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Configure LLM provider",
	Long:  `Configure the LLM provider that writes grounded answers and memo sections.`,
	RunE:  runSettingsLLM,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a single setting",
	Long: `Set a single setting by its dotted key. The value is validated before it is saved.

Keys:
  llm.provider, llm.model, llm.thorough_model, llm.base_url, llm.api_key, llm.tier
  embedding.provider, embedding.model, embedding.base_url, embedding.api_key
  index.backend, index.top_k, index.relevance_floor, index.max_retries,
  index.requests_per_second, index.data_dir
  timeouts.index, timeouts.search, timeouts.generate
  memo.tier, transcript.backend
  pipeline.processors, pipeline.chunker.chunk_size, pipeline.chunker.overlap

Examples:
  diligence settings set llm.tier thorough
  diligence settings set timeouts.generate 5m`,
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completeSettingKeys,
	RunE:              runSettingsSet,
}

// completeSettingKeys offers keys for the first argument only.
func completeSettingKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 || settingsService == nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return settingsService.Keys(), cobra.ShellCompDirectiveNoFileComp
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config file: %s\n\n", settingsService.ConfigPath())

	llm := settings.LLM
	llmRows := [][2]string{
		{"Provider", llm.Provider.Description()},
		{"Fast model", llm.ModelFor(domain.TierFast)},
		{"Thorough model", llm.ModelFor(domain.TierThorough)},
		{"Chat tier", llm.Tier.String()},
	}
	llmRows = append(llmRows, providerRows(llm.Provider, llm.BaseURL, llm.APIKey)...)
	printSection(out, "LLM", llmRows, llm.IsConfigured())

	index := settings.Index
	indexRows := [][2]string{
		{"Backend", index.Backend.Description()},
		{"Passages per question", strconv.Itoa(index.TopK)},
		{"Relevance floor", strconv.FormatFloat(index.RelevanceFloor, 'f', 2, 64)},
	}
	if index.MaxRetries > 0 {
		indexRows = append(indexRows, [2]string{"Retries", strconv.Itoa(index.MaxRetries)})
	}
	if index.RequestsPerSecond > 0 {
		indexRows = append(indexRows, [2]string{"Rate limit", strconv.FormatFloat(index.RequestsPerSecond, 'f', 1, 64) + "/s"})
	}
	printSection(out, "Index", indexRows, true)

	embed := settings.Embedding
	embedRows := [][2]string{{"Provider", "(not set)"}}
	if embed.Provider != "" {
		embedRows = [][2]string{
			{"Provider", embed.Provider.Description()},
			{"Model", embed.Model},
		}
		embedRows = append(embedRows, providerRows(embed.Provider, embed.BaseURL, embed.APIKey)...)
	}
	// An unset embedder only matters for backends that need one.
	printSection(out, "Embedding", embedRows, embed.IsConfigured() || !index.Backend.RequiresEmbedding())

	printSection(out, "Timeouts", [][2]string{
		{"Index", settings.Timeouts.Index.String()},
		{"Search", settings.Timeouts.Search.String()},
		{"Generate", settings.Timeouts.Generate.String()},
	}, true)

	printSection(out, "Memo", [][2]string{
		{"Tier", settings.Memo.Tier.String()},
		{"Transcript", string(settings.Transcript)},
	}, true)

	if err := settingsService.Validate(); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
		fmt.Fprintln(out, "Run 'diligence settings wizard' to fix configuration issues.")
		return nil
	}
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

// providerRows lists connection details relevant to provider.
func providerRows(provider domain.AIProvider, baseURL, apiKey string) [][2]string {
	var rows [][2]string
	if provider.IsLocal() {
		rows = append(rows, [2]string{"Base URL", baseURL})
	}
	if provider.RequiresAPIKey() {
		key := "(not set)"
		if apiKey != "" {
			key = maskAPIKey(apiKey)
		}
		rows = append(rows, [2]string{"API key", key})
	}
	return rows
}

// printSection writes a titled block of aligned key/value rows, ending with
// a status row when the section is not ready.
func printSection(out io.Writer, title string, rows [][2]string, ready bool) {
	if !ready {
		rows = append(rows, [2]string{"Status", "not configured"})
	}
	fmt.Fprintf(out, "[%s]\n", title)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, row := range rows {
		fmt.Fprintf(tw, "  %s:\t%s\n", row[0], row[1])
	}
	_ = tw.Flush()
	fmt.Fprintln(out)
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	p := newPrompter(cmd)
	p.heading("Diligence setup")

	p.heading("1/3 LLM provider (answers and memos)")
	if err := configureProvider(p, llmStep()); err != nil {
		return err
	}

	p.heading("2/3 Index backend")
	backend, err := selectBackend(p, 1)
	if err != nil {
		return err
	}
	p.printf("Index backend: %s\n\n", backend.Description())

	p.heading("3/3 Embedding provider")
	if backend.RequiresEmbedding() {
		if err := configureProvider(p, embeddingStep()); err != nil {
			return err
		}
	} else {
		p.printf("Skipped: the %s backend does not use embeddings.\n\n", backend)
	}

	if err := settingsService.Validate(); err != nil {
		p.printf("Warning: %v\n", err)
		return nil
	}
	p.printf("Settings saved to %s\n", settingsService.ConfigPath())
	return nil
}

func runSettingsBackend(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	p := newPrompter(cmd)
	backend, err := selectBackend(p, 0)
	if err != nil {
		return err
	}
	p.printf("Index backend set to: %s\n", backend.Description())

	if backend.RequiresEmbedding() {
		settings, err := settingsService.Get()
		if err == nil && !settings.Embedding.IsConfigured() {
			p.printf("\nNote: this backend needs an embedding provider.\n")
			p.printf("Run 'diligence settings embedding' to configure one.\n")
		}
	}
	return nil
}

func selectBackend(p *prompter, defaultChoice int) (domain.IndexBackend, error) {
	backends := domain.AllIndexBackends()
	labels := make([]string, len(backends))
	for i, b := range backends {
		labels[i] = b.Description()
	}
	idx, ok := p.choose(labels, defaultChoice)
	if !ok {
		return "", errors.New("invalid selection")
	}

	backend := backends[idx]
	if err := settingsService.SetIndexBackend(backend); err != nil {
		return "", fmt.Errorf("failed to set index backend: %w", err)
	}
	return backend, nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	return configureProvider(newPrompter(cmd), embeddingStep())
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}
	return configureProvider(newPrompter(cmd), llmStep())
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errSettingsNotConfigured
	}

	key, value := args[0], args[1]
	if err := settingsService.Set(key, value); err != nil {
		return err
	}

	if strings.HasSuffix(key, "api_key") {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", key, value)
	return nil
}

// providerStep describes one interactive provider setup.
type providerStep struct {
	kind      string
	providers []domain.AIProvider
	models    map[domain.AIProvider]string
	save      func(provider domain.AIProvider, model, apiKey string) error
	validate  func() error

	// thorough, when set, also asks for a thorough-tier model.
	thorough bool
}

func llmStep() providerStep {
	return providerStep{
		kind:      "LLM",
		providers: domain.AllLLMProviders(),
		models:    domain.DefaultLLMModels(),
		save:      settingsService.SetLLMProvider,
		validate:  settingsService.ValidateLLMConfig,
		thorough:  true,
	}
}

func embeddingStep() providerStep {
	return providerStep{
		kind:      "embedding",
		providers: domain.AllEmbeddingProviders(),
		models:    domain.DefaultEmbeddingModels(),
		save:      settingsService.SetEmbeddingProvider,
		validate:  settingsService.ValidateEmbeddingConfig,
	}
}

// configureProvider asks for provider, model and key, saves them and pings
// the provider. A failed ping leaves the new settings saved.
func configureProvider(p *prompter, step providerStep) error {
	labels := make([]string, len(step.providers))
	for i, provider := range step.providers {
		labels[i] = provider.Description()
	}
	idx, _ := p.choose(labels, 1)
	provider := step.providers[idx]

	model := p.ask("Model", step.models[provider])

	var apiKey string
	if provider.RequiresAPIKey() {
		apiKey = p.secret("API key")
		if apiKey == "" {
			return fmt.Errorf("%w: %s needs an API key", domain.ErrInvalidInput, provider)
		}
	}

	if err := step.save(provider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure %s provider: %w", step.kind, err)
	}

	if step.thorough {
		if thorough := p.ask("Thorough-tier model (blank to reuse "+model+")", ""); thorough != "" {
			if err := settingsService.Set("llm.thorough_model", thorough); err != nil {
				return err
			}
		}
	}

	p.printf("Checking %s... ", provider)
	if err := step.validate(); err != nil {
		p.printf("FAILED\n")
		return fmt.Errorf("%s provider check failed: %w", step.kind, err)
	}
	p.printf("OK\n")
	p.printf("%s provider: %s (%s)\n\n", step.kind, provider.Description(), model)
	return nil
}

// prompter reads answers from the command's input. One buffered reader is
// shared so typed-ahead answers are not lost between questions.
type prompter struct {
	out    io.Writer
	in     io.Reader
	reader *bufio.Reader
}

func newPrompter(cmd *cobra.Command) *prompter {
	in := cmd.InOrStdin()
	return &prompter{out: cmd.OutOrStdout(), in: in, reader: bufio.NewReader(in)}
}

func (p *prompter) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *prompter) heading(title string) {
	p.printf("%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func (p *prompter) line() string {
	input, _ := p.reader.ReadString('\n')
	return strings.TrimSpace(input)
}

// ask prints label with def in brackets and returns the answer or def.
func (p *prompter) ask(label, def string) string {
	if def != "" {
		p.printf("%s [%s]: ", label, def)
	} else {
		p.printf("%s: ", label)
	}
	if answer := p.line(); answer != "" {
		return answer
	}
	return def
}

// choose lists options numbered from 1 and returns the zero-based index.
// def is one-based; 0 means there is no default and a bad answer fails.
func (p *prompter) choose(options []string, def int) (int, bool) {
	for i, option := range options {
		p.printf("  %d. %s\n", i+1, option)
	}
	prompt := "Enter choice"
	if def > 0 {
		prompt = fmt.Sprintf("Enter choice [%d]", def)
	}
	p.printf("\n%s: ", prompt)

	n := parseChoice(p.line(), len(options), def)
	if n == 0 {
		return 0, false
	}
	return n - 1, true
}

// secret reads without echo when input is a terminal.
func (p *prompter) secret(label string) string {
	p.printf("%s: ", label)
	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		p.printf("\n")
		if err == nil {
			return strings.TrimSpace(string(b))
		}
	}
	return p.line()
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
