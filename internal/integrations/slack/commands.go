package slackbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"rosterbot/internal/domain"
	"rosterbot/internal/export"
	"rosterbot/internal/fetch"
	"rosterbot/internal/integrations/llm"
	"rosterbot/internal/report"
)

// splitRegionArgs treats a leading token that names a known region (or the
// all-regions value) as the region filter and the rest as a search query.
func splitRegionArgs(text string, regions []string) (string, string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", ""
	}
	first := fields[0]
	if first == domain.AllRegions {
		return first, strings.Join(fields[1:], " ")
	}
	for _, r := range regions {
		if r == first {
			return first, strings.Join(fields[1:], " ")
		}
	}
	return "", strings.Join(fields, " ")
}

// reply computes the response text for a read-only or refresh command.
// The boolean is false for commands this function does not handle.
func (b *Bot) reply(ctx context.Context, command, text, userID string) (string, bool) {
	snap := b.refresher.Current()
	region, query := splitRegionArgs(text, snap.RegionNames())

	switch command {
	case "/status":
		if region != "" && region != domain.AllRegions {
			return report.FormatRegion(snap, region), true
		}
		if query != "" {
			return report.FormatRegion(snap, query), true
		}
		return report.FormatSummary(snap, b.cfg.TeamName), true
	case "/regions":
		return report.FormatRegionTable(snap), true
	case "/unsubmitted":
		return report.FormatUnsubmitted(snap, region), true
	case "/submitted":
		return report.FormatSubmitted(snap, b.phones, region, query), true
	case "/anomalies":
		return report.FormatAnomalies(snap, b.phones), true
	case "/unmatched":
		return report.FormatUnmatched(snap), true
	case "/refresh":
		result, err := b.refresher.Refresh(ctx)
		if errors.Is(err, fetch.ErrRefreshInProgress) {
			return "이미 갱신 중입니다. 잠시 후 다시 시도하세요.", true
		}
		if err != nil {
			return fmt.Sprintf("갱신 실패: %v", err), true
		}
		return "갱신 완료: " + fetch.FormatRefreshSummary(result), true
	case "/aliases":
		if !b.cfg.IsManagerID(userID) {
			log.Printf("aliases denied user=%s", userID)
			return "담당 관리자만 사용할 수 있는 명령입니다.", true
		}
		suggestions, usage, err := llm.SuggestAliases(ctx, b.cfg, snap.UnmatchedNames, b.orgs)
		msg := llm.FormatAliasSuggestions(suggestions, len(snap.UnmatchedNames))
		if err != nil {
			log.Printf("aliases llm error: %v", err)
			msg += fmt.Sprintf("\n(LLM 제안 실패: %v)", err)
		}
		if usage.TotalTokens() > 0 {
			msg += fmt.Sprintf("\n_tokens used: %d_", usage.TotalTokens())
		}
		return msg, true
	case "/help":
		return helpText(b.cfg.IsManagerID(userID)), true
	}
	return "", false
}

// parseExportArgs reads "/export <kind> [region] [query]".
func parseExportArgs(text string, regions []string) (export.Kind, string, string, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return export.KindWorkbook, "", "", nil
	}
	kind, err := export.ParseKind(fields[0])
	if err != nil {
		return "", "", "", err
	}
	region, query := splitRegionArgs(strings.Join(fields[1:], " "), regions)
	return kind, region, query, nil
}

func helpText(isManager bool) string {
	lines := []string{
		"*제출 현황 봇 명령어*",
		"",
		"`/status [시군]` 전체 요약 또는 시군별 현황",
		"`/regions` 시군별 제출 현황 표",
		"`/unsubmitted [시군]` 미제출 기관 목록 (연락처 포함)",
		"`/submitted [시군] [검색어]` 제출 기관 목록",
		"`/anomalies` 박스는 있으나 수량이 0인 제출",
		"`/unmatched` 명단과 일치하지 않는 기관명",
		"`/refresh` 시트를 지금 다시 읽기",
		"`/export [submitted|unsubmitted|xlsx] [시군] [검색어]` 파일로 내려받기",
		"`/help` 이 도움말",
	}
	if isManager {
		lines = append(lines,
			"",
			"*관리자 명령*",
			"",
			"`/aliases` 불일치 기관명에 대한 별칭 제안 (명단 파일용 YAML)",
		)
	}
	return strings.Join(lines, "\n")
}
