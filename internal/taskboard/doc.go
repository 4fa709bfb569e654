// Package taskboard はタスク管理APIのHTTPサーバーを提供する。
//
// すべてのAPIは /api 配下にマウントされ、レスポンスは
// {"data": ...} または {"error": {...}} のエンベロープで返す。
//
// エンドポイント:
//
//	GET    /api/hello                          公開ルート一覧（認証不要）
//	POST   /api/auth/signup                    ユーザー登録（認証不要）
//	POST   /api/auth/login                     ログイン（認証不要）
//	POST   /api/auth/logout                    ログアウト（認証不要）
//	GET    /api/auth/me                        ログイン中のユーザー
//	GET    /api/projects                       所属プロジェクト一覧
//	POST   /api/projects                       プロジェクト作成
//	GET    /api/projects/:id                   プロジェクト詳細
//	PATCH  /api/projects/:id                   プロジェクト更新（admin以上）
//	DELETE /api/projects/:id                   プロジェクト削除（ownerのみ）
//	GET    /api/projects/:id/members           メンバー一覧
//	POST   /api/projects/:id/members           メンバー追加（admin以上）
//	PATCH  /api/projects/:id/members/:userID   ロール変更（admin以上）
//	DELETE /api/projects/:id/members/:userID   メンバー削除（admin以上または本人）
//	GET    /api/projects/:id/tasks             タスク一覧（status, assignee, label, q, view）
//	POST   /api/projects/:id/tasks             タスク作成（member以上）
//	GET    /api/tasks/:id                      タスク詳細
//	PATCH  /api/tasks/:id                      タスク更新（member以上）
//	DELETE /api/tasks/:id                      タスク削除（作成者またはadmin以上）
//	POST   /api/tasks/:id/labels/:labelID      ラベル付与
//	DELETE /api/tasks/:id/labels/:labelID      ラベル解除
//	GET    /api/projects/:id/labels            ラベル一覧
//	POST   /api/projects/:id/labels            ラベル作成（member以上）
//	DELETE /api/labels/:id                     ラベル削除（admin以上）
//	GET    /api/projects/:id/views             保存ビュー一覧
//	POST   /api/projects/:id/views             保存ビュー作成
//	DELETE /api/views/:id                      保存ビュー削除（作成者のみ）
//	GET    /api/projects/:id/activity          アクティビティ（新しい順）
//	GET    /health                             ヘルスチェック
//	GET    /metrics                            Prometheusメトリクス
package taskboard
