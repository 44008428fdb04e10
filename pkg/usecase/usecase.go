package usecase

import (
	"github.com/opscopilot-dev/opscopilot/pkg/domain/interfaces"
	"github.com/opscopilot-dev/opscopilot/pkg/service/rag"
)

type UseCases struct {
	repo      interfaces.Repository
	retrieval *rag.Service
	llm       interfaces.LLMClient
}

type Option func(*UseCases)

// WithRetrieval attaches the policy retrieval service. Without it, triage
// runs with the empty policy context marker.
func WithRetrieval(svc *rag.Service) Option {
	return func(uc *UseCases) {
		uc.retrieval = svc
	}
}

// WithLLM attaches the language-model client. Triage requires it.
func WithLLM(llm interfaces.LLMClient) Option {
	return func(uc *UseCases) {
		uc.llm = llm
	}
}

func New(repo interfaces.Repository, opts ...Option) *UseCases {
	uc := &UseCases{
		repo: repo,
	}

	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// Repository exposes the underlying store for boundary layers
func (uc *UseCases) Repository() interfaces.Repository {
	return uc.repo
}
