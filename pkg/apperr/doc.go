// Package apperr はAPIで扱う型付きエラー（業務エラー・認証エラー等）を定義する。
//
// エラーの種類は閉じた集合（Kind）として表現し、エラーハンドラーは
// Kindごとに HTTPステータスと安定したエラーコードを決定する。
// Kindに分類できないエラーは「未分類」として 500 で応答する。
package apperr
