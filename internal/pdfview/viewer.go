// Package pdfview は提出書類PDFの閲覧状態を管理する。
//
// 描画そのものは外部のレンダラーに委ね、このパッケージはページ送り・
// ズーム・読み込み状態という閲覧セッションの状態遷移だけを扱う。
package pdfview

import (
	"context"
	"errors"
	"fmt"
)

// ズームの可動域と刻み幅。
const (
	MinZoom  = 0.5
	MaxZoom  = 3.0
	ZoomStep = 0.25
)

// State はビューアの読み込み状態。
// loadingからreadyまたはerrorへ一方向に遷移し、errorからの再試行はない。
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// ErrNotReady は読み込み完了前の操作を表す。
var ErrNotReady = errors.New("ドキュメントの読み込みが完了していません")

// ErrLoadFailed は読み込みに失敗したビューアへの操作を表す。
// 失敗したビューアは再利用せず、新しいビューアを生成し直す。
var ErrLoadFailed = errors.New("ドキュメントの読み込みに失敗しました")

// Renderer はPDFドキュメントの解析と描画を抽象化する。
type Renderer interface {
	// Load はドキュメントを解析し、総ページ数を返す。
	Load(ctx context.Context, data []byte) (pageCount int, err error)
}

// Viewer は1ドキュメントの閲覧セッション。ゴルーチン間で共有しない。
type Viewer struct {
	renderer Renderer

	state     State
	pageCount int
	page      int
	zoom      float64
}

// NewViewer はloading状態のViewerを生成する。
func NewViewer(renderer Renderer) *Viewer {
	return &Viewer{
		renderer: renderer,
		state:    StateLoading,
		page:     1,
		zoom:     1.0,
	}
}

// Load はドキュメントを読み込み、ready状態へ遷移させる。
// 失敗した場合はerror状態へ遷移し、以後の再読み込みは受け付けない。
func (v *Viewer) Load(ctx context.Context, data []byte) error {
	switch v.state {
	case StateReady:
		return errors.New("ドキュメントは読み込み済みです")
	case StateError:
		return ErrLoadFailed
	}

	pageCount, err := v.renderer.Load(ctx, data)
	if err != nil {
		v.state = StateError
		return fmt.Errorf("failed to load document: %w", err)
	}
	if pageCount < 1 {
		v.state = StateError
		return fmt.Errorf("failed to load document: invalid page count %d", pageCount)
	}

	v.state = StateReady
	v.pageCount = pageCount
	v.page = 1
	return nil
}

// State は現在の読み込み状態を返す。
func (v *Viewer) State() State {
	return v.state
}

// PageCount は総ページ数を返す。ready以前は0。
func (v *Viewer) PageCount() int {
	return v.pageCount
}

// CurrentPage は現在のページ番号を返す。1始まり。
func (v *Viewer) CurrentPage() int {
	return v.page
}

// Zoom は現在のズーム倍率を返す。
func (v *Viewer) Zoom() float64 {
	return v.zoom
}

// GoToPage は指定ページへ移動する。範囲外の指定は[1, 総ページ数]に丸める。
func (v *Viewer) GoToPage(page int) error {
	if v.state != StateReady {
		return v.notReadyErr()
	}
	v.page = clampPage(page, v.pageCount)
	return nil
}

// NextPage は次のページへ移動する。最終ページでは動かない。
func (v *Viewer) NextPage() error {
	if v.state != StateReady {
		return v.notReadyErr()
	}
	v.page = clampPage(v.page+1, v.pageCount)
	return nil
}

// PrevPage は前のページへ移動する。先頭ページでは動かない。
func (v *Viewer) PrevPage() error {
	if v.state != StateReady {
		return v.notReadyErr()
	}
	v.page = clampPage(v.page-1, v.pageCount)
	return nil
}

// SetZoom はズーム倍率を設定する。範囲外の値は可動域に丸める。
func (v *Viewer) SetZoom(zoom float64) {
	v.zoom = clampZoom(zoom)
}

// ZoomIn はズーム倍率を1段階上げる。上限で止まる。
func (v *Viewer) ZoomIn() {
	v.zoom = clampZoom(v.zoom + ZoomStep)
}

// ZoomOut はズーム倍率を1段階下げる。下限で止まる。
func (v *Viewer) ZoomOut() {
	v.zoom = clampZoom(v.zoom - ZoomStep)
}

func (v *Viewer) notReadyErr() error {
	if v.state == StateError {
		return ErrLoadFailed
	}
	return ErrNotReady
}

func clampPage(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}

func clampZoom(zoom float64) float64 {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}
