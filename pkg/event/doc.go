// Package event はプロジェクトのアクティビティ（変更履歴）イベントを定義する。
//
// タスクやメンバーの変更はEventとしてactivitiesテーブルに追記され、
// GET /api/projects/:id/activity で新しい順に参照できる。
package event
