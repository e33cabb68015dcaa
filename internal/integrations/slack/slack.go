package slackbot

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"rosterbot/internal/config"
	"rosterbot/internal/domain"
	"rosterbot/internal/export"
	"rosterbot/internal/fetch"
	"rosterbot/internal/report"
)

type Bot struct {
	cfg       config.Config
	api       *slack.Client
	refresher *fetch.Refresher
	orgs      []domain.Organization
	phones    report.PhoneBook
}

func NewBot(cfg config.Config, api *slack.Client, refresher *fetch.Refresher, orgs []domain.Organization) *Bot {
	return &Bot{
		cfg:       cfg,
		api:       api,
		refresher: refresher,
		orgs:      orgs,
		phones:    report.NewPhoneBook(orgs),
	}
}

// Run connects over Socket Mode and serves commands until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	client := socketmode.New(b.api)

	go func() {
		for evt := range client.Events {
			switch evt.Type {
			case socketmode.EventTypeSlashCommand:
				client.Ack(*evt.Request)
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					continue
				}
				log.Printf("Slash command received: %s from user=%s channel=%s", cmd.Command, cmd.UserID, cmd.ChannelID)
				go b.handleSlashCommand(ctx, cmd)
			case socketmode.EventTypeEventsAPI:
				client.Ack(*evt.Request)
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				go b.handleEventsAPI(eventsAPIEvent)
			}
		}
	}()

	log.Println("Slack bot connected via Socket Mode")
	return client.RunContext(ctx)
}

func (b *Bot) handleSlashCommand(ctx context.Context, cmd slack.SlashCommand) {
	if cmd.Command == "/export" {
		b.handleExport(cmd)
		return
	}
	if cmd.Command == "/refresh" {
		b.postEphemeral(cmd, "시트를 다시 읽는 중입니다...")
	}
	text, ok := b.reply(ctx, cmd.Command, cmd.Text, cmd.UserID)
	if !ok {
		log.Printf("unknown command %s", cmd.Command)
		return
	}
	b.postEphemeral(cmd, text)
}

func (b *Bot) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.MemberJoinedChannelEvent:
		b.handleMemberJoined(ev)
	}
}

func (b *Bot) handleMemberJoined(ev *slackevents.MemberJoinedChannelEvent) {
	log.Printf("member-joined user=%s channel=%s", ev.User, ev.Channel)

	intro := fmt.Sprintf("*%s* 채널에 오신 것을 환영합니다! 이 봇은 설문 시트를 읽어 기관별 제출 현황을 알려 드립니다.\n\n"+
		"• `/status` 전체 제출 현황\n"+
		"• `/unsubmitted 시군` 해당 시군의 미제출 기관과 연락처\n"+
		"• `/help` 전체 명령어",
		b.cfg.TeamName,
	)

	_, _, err := b.api.PostMessage(ev.Channel,
		slack.MsgOptionText(intro, false),
		slack.MsgOptionPostEphemeral(ev.User),
	)
	if err != nil {
		log.Printf("member-joined intro error user=%s channel=%s: %v", ev.User, ev.Channel, err)
	}
}

func (b *Bot) handleExport(cmd slack.SlashCommand) {
	snap := b.refresher.Current()
	kind, region, query, err := parseExportArgs(cmd.Text, snap.RegionNames())
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("사용법: /export [submitted|unsubmitted|xlsx] [시군] [검색어]\n%v", err))
		return
	}

	now := time.Now().In(b.cfg.Location)
	filePath, err := export.WriteExportFile(b.cfg.ReportOutputDir, kind, snap, region, query, now)
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("파일을 만들지 못했습니다: %v", err))
		log.Printf("export write error kind=%s: %v", kind, err)
		return
	}
	fi, err := os.Stat(filePath)
	if err != nil {
		b.postEphemeral(cmd, fmt.Sprintf("파일을 읽지 못했습니다: %v", err))
		return
	}

	_, err = b.api.UploadFileV2(slack.UploadFileV2Parameters{
		File:           filePath,
		FileSize:       int(fi.Size()),
		Filename:       filepath.Base(filePath),
		Channel:        cmd.ChannelID,
		Title:          filepath.Base(filePath),
		InitialComment: fmt.Sprintf("%s 기준 내보내기 (%s)", report.FormatRegionLabel(region), kind),
	})
	if err != nil {
		log.Printf("Error uploading export file: %v", err)
		b.postEphemeral(cmd, "파일 업로드에 실패했습니다. 봇 권한을 확인하세요.")
		return
	}
	log.Printf("export done kind=%s region=%q path=%s", kind, region, filePath)
}

// PostToReportChannel posts text to the configured report channel, if any.
func (b *Bot) PostToReportChannel(text string) {
	if b.cfg.ReportChannelID == "" {
		return
	}
	if _, _, err := b.api.PostMessage(b.cfg.ReportChannelID, slack.MsgOptionText(text, false)); err != nil {
		log.Printf("report channel post error: %v", err)
	}
}

func (b *Bot) postEphemeral(cmd slack.SlashCommand, text string) {
	postEphemeralTo(b.api, cmd.ChannelID, cmd.UserID, text)
}

func postEphemeralTo(api *slack.Client, channelID, userID, text string) {
	_, err := api.PostEphemeral(channelID, userID, slack.MsgOptionText(text, false))
	if err != nil {
		log.Printf("Error posting ephemeral: %v", err)
	}
}
