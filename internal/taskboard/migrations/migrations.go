// Package migrations はtaskboardのスキーマ定義SQLを埋め込む。
package migrations

import "embed"

// FS はマイグレーションファイル（000001_name.up.sql）を含む。
//
//go:embed *.up.sql
var FS embed.FS

// Dir はFS内のマイグレーションファイルの置き場所。
const Dir = "."
