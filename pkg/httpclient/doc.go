// Package httpclient はtaskboard APIを呼び出すHTTPクライアントを提供する。
//
// レスポンスのエンベロープ（{"data": ...} / {"error": {...}}）を解釈し、
// 成功時はdataをデシリアライズし、失敗時はエラーコード付きの*APIErrorを返す。
// CLIのヘルスチェックなどで使用する。
package httpclient
