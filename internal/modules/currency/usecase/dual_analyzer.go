package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"currency-recognition-app/internal/modules/currency/domain"
)

// DefaultProviderTimeout プロバイダー1件あたりの解析上限
const DefaultProviderTimeout = 60 * time.Second

// DualAnalyzer 2つのプロバイダーで同じ画像を並行解析する
type DualAnalyzer struct {
	primary   domain.Provider
	secondary domain.Provider
	timeout   time.Duration
	logger    *slog.Logger
}

// NewDualAnalyzer 新しいDualAnalyzerを作成
func NewDualAnalyzer(primary, secondary domain.Provider, timeout time.Duration) (*DualAnalyzer, error) {
	if primary == nil || secondary == nil {
		return nil, errors.New("two providers are required")
	}
	if primary.Name() == secondary.Name() {
		return nil, fmt.Errorf("provider names must be distinct: %s", primary.Name())
	}
	if timeout <= 0 {
		timeout = DefaultProviderTimeout
	}

	return &DualAnalyzer{
		primary:   primary,
		secondary: secondary,
		timeout:   timeout,
		logger:    slog.Default(),
	}, nil
}

// ProviderNames 結果マップのキーを返す
func (d *DualAnalyzer) ProviderNames() []string {
	return []string{d.primary.Name(), d.secondary.Name()}
}

// taskOutcome 1プロバイダー分の実行結果
type taskOutcome struct {
	result *domain.CurrencyAnalysisResult
	// fault パニック・nil結果など、アダプターが結果を返せなかった場合に設定される
	fault error
}

// RunDualAnalysis 両プロバイダーで解析し、結果マップと一致判定を返す
// 片方の失敗は結果データとして返し、両方のタスクが結果を返せなかった場合のみエラーにする
func (d *DualAnalyzer) RunDualAnalysis(ctx context.Context, imageData []byte, mimeType string) (map[string]*domain.CurrencyAnalysisResult, domain.ConsensusVerdict, error) {
	if err := domain.ValidateImage(imageData, mimeType); err != nil {
		return nil, domain.ConsensusVerdict{}, err
	}

	providers := [2]domain.Provider{d.primary, d.secondary}
	var outcomes [2]taskOutcome

	var wg sync.WaitGroup
	for i, provider := range providers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = d.runTask(ctx, provider, imageData, mimeType)
		}()
	}
	wg.Wait()

	if outcomes[0].fault != nil && outcomes[1].fault != nil {
		return nil, domain.ConsensusVerdict{}, domain.NewOrchestrationFailure(
			"no provider produced a result",
			errors.Join(outcomes[0].fault, outcomes[1].fault),
		)
	}

	results := make(map[string]*domain.CurrencyAnalysisResult, len(providers))
	for i, provider := range providers {
		results[provider.Name()] = outcomes[i].result
	}

	verdict := domain.Compare(outcomes[0].result, outcomes[1].result)
	return results, verdict, nil
}

// runTask プロバイダー1件を独立したタイムアウトで実行する
// 戻り値のresultは常に非nil
func (d *DualAnalyzer) runTask(ctx context.Context, provider domain.Provider, imageData []byte, mimeType string) taskOutcome {
	name := provider.Name()
	start := time.Now()

	taskCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	// アダプターが戻らない場合でも送信でブロックしないようバッファ付き
	done := make(chan taskOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- taskOutcome{fault: fmt.Errorf("provider %s panicked: %v", name, r)}
			}
		}()

		result, err := provider.Analyze(taskCtx, imageData, mimeType)
		switch {
		case err != nil:
			done <- taskOutcome{fault: fmt.Errorf("provider %s: %w", name, err)}
		case result == nil:
			done <- taskOutcome{fault: fmt.Errorf("provider %s returned no result", name)}
		default:
			done <- taskOutcome{result: result}
		}
	}()

	var outcome taskOutcome
	select {
	case outcome = <-done:
	case <-taskCtx.Done():
		outcome = taskOutcome{result: domain.NewFailedResult(name, d.abortMessage(ctx))}
	}

	if outcome.fault != nil {
		d.logger.Error("provider task fault", "provider", name, "error", outcome.fault)
		outcome.result = domain.NewFailedResult(name, outcome.fault.Error())
	}

	if outcome.result.ProviderName == "" {
		outcome.result.ProviderName = name
	}
	if outcome.result.Duration == 0 {
		outcome.result.Duration = time.Since(start)
	}

	d.logger.Info("provider analysis finished",
		"provider", name,
		"outcome", outcome.result.Outcome,
		"detections", len(outcome.result.Detections),
		"unknown_currency_types", countUnknownCurrencies(outcome.result),
		"duration", outcome.result.Duration,
	)

	return outcome
}

// abortMessage タスクが打ち切られた理由を返す
// 呼び出し元のコンテキストが先に終了した場合はそちらを理由にする
func (d *DualAnalyzer) abortMessage(parent context.Context) string {
	switch err := parent.Err(); {
	case errors.Is(err, context.Canceled):
		return "analysis canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Sprintf("request deadline exceeded: %v", err)
	default:
		return fmt.Sprintf("timed out after %s", d.timeout)
	}
}

func countUnknownCurrencies(result *domain.CurrencyAnalysisResult) int {
	n := 0
	for _, d := range result.Detections {
		if !d.CurrencyType.IsKnown() {
			n++
		}
	}
	return n
}
