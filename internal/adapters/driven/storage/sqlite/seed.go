package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/deskfind/internal/core/domain"
)

// SeedDemo loads a small demo dataset so a fresh install has something to
// search. Idempotent per call only in the sense that file ids are fresh;
// members and rooms upsert.
func (s *Store) SeedDemo(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting seed transaction: %w", err)
	}
	defer tx.Rollback()

	members := []struct {
		email, nickname string
		dept            domain.Department
	}{
		{"kim.cheolsu@example.com", "김철수", domain.DeptDesign},
		{"lee.younghee@example.com", "이영희", domain.DeptPlanning},
		{"park.minsu@example.com", "박민수", domain.DeptDevelopment},
		{"choi.jiwoo@example.com", "최지우", domain.DeptSales},
		{"demo@example.com", "데모", domain.DeptDevelopment},
	}
	for _, m := range members {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO members (email, nickname, department, active) VALUES (?, ?, ?, 1)
			 ON CONFLICT(email) DO UPDATE SET nickname = excluded.nickname, department = excluded.department`,
			m.email, m.nickname, string(m.dept)); err != nil {
			return fmt.Errorf("seeding member %s: %w", m.email, err)
		}
	}

	now := time.Now()
	daysAgo := func(n int) time.Time { return now.AddDate(0, 0, -n) }

	tickets := []struct {
		tno                                   int64
		title, content, purpose, requirement  string
		writer                                string
		receivers                             []string
		files                                 []struct {
			name string
			size int64
			at   time.Time
		}
	}{
		{
			tno: 1001, title: "신제품 기획서 검토 요청",
			content: "3분기 신제품 기획서 초안입니다. 검토 부탁드립니다.",
			purpose: "기획서 승인", requirement: "금주 내 회신",
			writer: "lee.younghee@example.com", receivers: []string{"demo@example.com"},
			files: []struct {
				name string
				size int64
				at   time.Time
			}{
				{"신제품_기획서_v2.pdf", 482133, daysAgo(12)},
				{"시장조사_요약.xlsx", 90411, daysAgo(12)},
			},
		},
		{
			tno: 1002, title: "홈페이지 디자인 시안 공유",
			content: "리뉴얼 시안 2종 첨부합니다.",
			purpose: "시안 선택", requirement: "다음 주 월요일까지",
			writer: "kim.cheolsu@example.com", receivers: []string{"demo@example.com", "lee.younghee@example.com"},
			files: []struct {
				name string
				size int64
				at   time.Time
			}{
				{"디자인_시안_A.png", 2048000, daysAgo(5)},
				{"디자인_시안_B.png", 1985230, daysAgo(5)},
			},
		},
	}
	for _, t := range tickets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tickets (tno, title, content, purpose, requirement, writer_email)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(tno) DO NOTHING`,
			t.tno, t.title, t.content, t.purpose, t.requirement, t.writer); err != nil {
			return fmt.Errorf("seeding ticket %d: %w", t.tno, err)
		}
		for _, r := range t.receivers {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ticket_receivers (tno, receiver_email) VALUES (?, ?)
				 ON CONFLICT(tno, receiver_email) DO NOTHING`, t.tno, r); err != nil {
				return fmt.Errorf("seeding ticket receiver: %w", err)
			}
		}
		for _, f := range t.files {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO ticket_files (uuid, tno, file_name, file_size, writer_email, receiver_email, created_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				uuid.NewString(), t.tno, f.name, f.size, t.writer, t.receivers[0], f.at); err != nil {
				return fmt.Errorf("seeding ticket file: %w", err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO chat_rooms (id, name) VALUES (1, '개발팀 공지방'), (2, '프로젝트 단톡')
		 ON CONFLICT(id) DO NOTHING`); err != nil {
		return fmt.Errorf("seeding chat rooms: %w", err)
	}
	participants := []struct {
		room   int64
		member string
		joined time.Time
	}{
		{1, "demo@example.com", daysAgo(90)},
		{1, "park.minsu@example.com", daysAgo(90)},
		{2, "demo@example.com", daysAgo(30)},
		{2, "kim.cheolsu@example.com", daysAgo(30)},
		{2, "choi.jiwoo@example.com", daysAgo(30)},
	}
	for _, p := range participants {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_participants (room_id, member_email, joined_at) VALUES (?, ?, ?)
			 ON CONFLICT(room_id, member_email) DO NOTHING`, p.room, p.member, p.joined); err != nil {
			return fmt.Errorf("seeding participant: %w", err)
		}
	}
	chatFiles := []struct {
		room   int64
		name   string
		size   int64
		writer string
		at     time.Time
	}{
		{1, "배포_체크리스트.md", 4120, "park.minsu@example.com", daysAgo(3)},
		{2, "로고_최종.ai", 10485760, "kim.cheolsu@example.com", daysAgo(7)},
		{2, "견적서_초안.hwp", 55210, "choi.jiwoo@example.com", daysAgo(1)},
	}
	for i, f := range chatFiles {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chat_files (uuid, room_id, message_seq, file_name, file_size, writer_email, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), f.room, int64(i+1), f.name, f.size, f.writer, f.at); err != nil {
			return fmt.Errorf("seeding chat file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}
	return nil
}
