// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// JWTの発行と検証、公開ルート判定を含むリクエスト認証、
// 型付きエラーを統一エンベロープに変換するエラーハンドラー、
// パニックリカバリ、CORS、Prometheusメトリクスを含む。
//
// 推奨する登録順（外側から）:
//
//	Metrics -> ErrorHandler -> Recovery -> CORS -> Authenticate -> ハンドラー
package middleware
