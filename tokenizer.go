package main

import (
	"fmt"
	"strings"

	tiktoken "github.com/pkoukk/tiktoken-go"
	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Tokenizer counts tokens for metrics mode. Implementations must be safe for
// concurrent use by the reader pool workers.
type Tokenizer interface {
	CountTokens(text string) (int, error)
	Close()
}

// tokenizerOptions selects and configures a Tokenizer.
type tokenizerOptions struct {
	Type  string // tiktoken or huggingface
	Model string
	File  string
}

const (
	defaultTiktokenEncoding = "cl100k_base"
	defaultHFModel          = "gpt2"
)

// --- Tiktoken Wrapper ---

type TiktokenWrapper struct {
	ttk *tiktoken.Tiktoken
}

func (w *TiktokenWrapper) CountTokens(text string) (int, error) {
	return len(w.ttk.EncodeOrdinary(text)), nil
}

func (w *TiktokenWrapper) Close() {}

// --- HuggingFace (sugarme) Wrapper ---

type HFTokenizerWrapper struct {
	htk *hf.Tokenizer
}

func (w *HFTokenizerWrapper) CountTokens(text string) (int, error) {
	en, err := w.htk.EncodeSingle(text)
	if err != nil {
		return 0, fmt.Errorf("huggingface tokenizer failed to encode text: %w", err)
	}
	return len(en.Tokens), nil
}

func (w *HFTokenizerWrapper) Close() {}

// newTokenizer returns the tokenizer described by opts. Callers treat an
// error as "token counting unavailable", never as fatal.
func newTokenizer(opts tokenizerOptions) (Tokenizer, error) {
	logger.Debugw("initializing tokenizer", "type", opts.Type, "model", opts.Model, "file", opts.File)

	switch strings.ToLower(opts.Type) {
	case "", "tiktoken":
		return loadTiktoken(opts.Model)
	case "huggingface", "hf":
		return loadHuggingFace(opts.Model, opts.File)
	default:
		return nil, fmt.Errorf("unsupported tokenizer type: %s. Use 'tiktoken' or 'huggingface'", opts.Type)
	}
}

func loadTiktoken(model string) (Tokenizer, error) {
	if model == "" {
		tke, err := tiktoken.GetEncoding(defaultTiktokenEncoding)
		if err != nil {
			return nil, fmt.Errorf("failed to load tiktoken encoding %s: %w", defaultTiktokenEncoding, err)
		}
		return &TiktokenWrapper{ttk: tke}, nil
	}

	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.Warnw("tiktoken model not found, falling back to default encoding", "model", model, "encoding", defaultTiktokenEncoding, "error", err)
		return loadTiktoken("")
	}
	return &TiktokenWrapper{ttk: tke}, nil
}

func loadHuggingFace(model, file string) (Tokenizer, error) {
	if file != "" {
		ttk, err := pretrained.FromFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load tokenizer from file %s: %w", file, err)
		}
		return &HFTokenizerWrapper{htk: ttk}, nil
	}

	if model == "" {
		model = defaultHFModel
	}
	logger.Infow("loading HuggingFace tokenizer (this may download files)", "model", model)
	configFilePath, err := hf.CachedPath(model, "tokenizer.json")
	if err != nil {
		return nil, fmt.Errorf("failed to get cache path for model %s: %w", model, err)
	}
	ttk, err := pretrained.FromFile(configFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pretrained tokenizer for model %s (from %s): %w", model, configFilePath, err)
	}
	return &HFTokenizerWrapper{htk: ttk}, nil
}
