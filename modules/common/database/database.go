package database

import (
	"fmt"
	"log"

	"github.com/supabase-community/supabase-go"
)

type Client struct {
	supabase *supabase.Client
}

// NewClient - Database 클라이언트 생성
func NewClient(url, serviceKey string) (*Client, error) {
	if url == "" || serviceKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY are required")
	}

	supabaseClient, err := supabase.NewClient(url, serviceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ Failed to create Supabase client: %v", err)
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	log.Println("✅ Supabase database client initialized")
	return &Client{supabase: supabaseClient}, nil
}

// Insert - 테이블에 레코드 한 건 추가
func (c *Client) Insert(table string, row interface{}) error {
	_, _, err := c.supabase.From(table).
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}
