package pdfview

import (
	"context"
	"errors"
	"testing"
)

// mockRenderer はRendererのモック実装。
type mockRenderer struct {
	loadFunc func(ctx context.Context, data []byte) (int, error)
}

func (m *mockRenderer) Load(ctx context.Context, data []byte) (int, error) {
	return m.loadFunc(ctx, data)
}

// newReadyViewer は指定ページ数のready状態のViewerを返す。
func newReadyViewer(t *testing.T, pageCount int) *Viewer {
	t.Helper()
	v := NewViewer(&mockRenderer{
		loadFunc: func(ctx context.Context, data []byte) (int, error) {
			return pageCount, nil
		},
	})
	if err := v.Load(context.Background(), []byte("%PDF-1.7")); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return v
}

// TestViewer_LoadTransitions は読み込み状態の遷移を検証する。
func TestViewer_LoadTransitions(t *testing.T) {
	t.Run("成功でready", func(t *testing.T) {
		v := NewViewer(&mockRenderer{
			loadFunc: func(ctx context.Context, data []byte) (int, error) { return 5, nil },
		})
		if v.State() != StateLoading {
			t.Errorf("State() = %q, want loading", v.State())
		}

		if err := v.Load(context.Background(), []byte("%PDF-1.7")); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if v.State() != StateReady {
			t.Errorf("State() = %q, want ready", v.State())
		}
		if v.PageCount() != 5 {
			t.Errorf("PageCount() = %d, want 5", v.PageCount())
		}
		if v.CurrentPage() != 1 {
			t.Errorf("CurrentPage() = %d, want 1", v.CurrentPage())
		}
	})

	t.Run("失敗でerror", func(t *testing.T) {
		v := NewViewer(&mockRenderer{
			loadFunc: func(ctx context.Context, data []byte) (int, error) {
				return 0, errors.New("broken document")
			},
		})
		if err := v.Load(context.Background(), []byte("junk")); err == nil {
			t.Fatal("Load() error = nil, want error")
		}
		if v.State() != StateError {
			t.Errorf("State() = %q, want error", v.State())
		}
	})

	t.Run("ページ数0はerror", func(t *testing.T) {
		v := NewViewer(&mockRenderer{
			loadFunc: func(ctx context.Context, data []byte) (int, error) { return 0, nil },
		})
		if err := v.Load(context.Background(), []byte("%PDF-1.7")); err == nil {
			t.Fatal("Load() error = nil, want error")
		}
		if v.State() != StateError {
			t.Errorf("State() = %q, want error", v.State())
		}
	})
}

// TestViewer_NoRetryAfterError はerror状態からの再読み込みを受け付けない
// ことを検証する。
func TestViewer_NoRetryAfterError(t *testing.T) {
	var calls int
	v := NewViewer(&mockRenderer{
		loadFunc: func(ctx context.Context, data []byte) (int, error) {
			calls++
			return 0, errors.New("broken document")
		},
	})

	if err := v.Load(context.Background(), []byte("junk")); err == nil {
		t.Fatal("Load() error = nil, want error")
	}
	if err := v.Load(context.Background(), []byte("junk")); !errors.Is(err, ErrLoadFailed) {
		t.Fatalf("second Load() error = %v, want ErrLoadFailed", err)
	}
	if calls != 1 {
		t.Errorf("renderer calls = %d, want 1 (no retry)", calls)
	}
	if err := v.GoToPage(1); !errors.Is(err, ErrLoadFailed) {
		t.Errorf("GoToPage() error = %v, want ErrLoadFailed", err)
	}
}

// TestViewer_PageClamp はページ番号が[1, 総ページ数]に丸められることを検証する。
func TestViewer_PageClamp(t *testing.T) {
	tests := []struct {
		name string
		page int
		want int
	}{
		{name: "範囲内", page: 3, want: 3},
		{name: "下限未満", page: 0, want: 1},
		{name: "負の値", page: -10, want: 1},
		{name: "上限超過", page: 99, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newReadyViewer(t, 5)
			if err := v.GoToPage(tt.page); err != nil {
				t.Fatalf("GoToPage() error = %v", err)
			}
			if v.CurrentPage() != tt.want {
				t.Errorf("CurrentPage() = %d, want %d", v.CurrentPage(), tt.want)
			}
		})
	}
}

// TestViewer_PageNavigation はページ送りが端で止まることを検証する。
func TestViewer_PageNavigation(t *testing.T) {
	v := newReadyViewer(t, 2)

	if err := v.PrevPage(); err != nil {
		t.Fatalf("PrevPage() error = %v", err)
	}
	if v.CurrentPage() != 1 {
		t.Errorf("CurrentPage() = %d, want 1 at first page", v.CurrentPage())
	}

	if err := v.NextPage(); err != nil {
		t.Fatalf("NextPage() error = %v", err)
	}
	if v.CurrentPage() != 2 {
		t.Errorf("CurrentPage() = %d, want 2", v.CurrentPage())
	}

	if err := v.NextPage(); err != nil {
		t.Fatalf("NextPage() error = %v", err)
	}
	if v.CurrentPage() != 2 {
		t.Errorf("CurrentPage() = %d, want 2 at last page", v.CurrentPage())
	}
}

// TestViewer_NavigationBeforeReady は読み込み前のページ操作が拒否される
// ことを検証する。
func TestViewer_NavigationBeforeReady(t *testing.T) {
	v := NewViewer(&mockRenderer{
		loadFunc: func(ctx context.Context, data []byte) (int, error) { return 1, nil },
	})
	if err := v.GoToPage(1); !errors.Is(err, ErrNotReady) {
		t.Errorf("GoToPage() error = %v, want ErrNotReady", err)
	}
	if err := v.NextPage(); !errors.Is(err, ErrNotReady) {
		t.Errorf("NextPage() error = %v, want ErrNotReady", err)
	}
}

// TestViewer_ZoomClamp はズーム倍率が可動域に丸められることを検証する。
func TestViewer_ZoomClamp(t *testing.T) {
	v := newReadyViewer(t, 1)

	if v.Zoom() != 1.0 {
		t.Errorf("Zoom() = %v, want default 1.0", v.Zoom())
	}

	v.SetZoom(10.0)
	if v.Zoom() != MaxZoom {
		t.Errorf("Zoom() = %v, want clamped to %v", v.Zoom(), MaxZoom)
	}

	v.SetZoom(0.1)
	if v.Zoom() != MinZoom {
		t.Errorf("Zoom() = %v, want clamped to %v", v.Zoom(), MinZoom)
	}
}

// TestViewer_ZoomSteps はズーム操作が0.25刻みで上下限に止まることを検証する。
func TestViewer_ZoomSteps(t *testing.T) {
	v := newReadyViewer(t, 1)

	v.ZoomIn()
	if v.Zoom() != 1.25 {
		t.Errorf("Zoom() = %v, want 1.25", v.Zoom())
	}

	for i := 0; i < 20; i++ {
		v.ZoomIn()
	}
	if v.Zoom() != MaxZoom {
		t.Errorf("Zoom() = %v, want %v at upper bound", v.Zoom(), MaxZoom)
	}

	for i := 0; i < 20; i++ {
		v.ZoomOut()
	}
	if v.Zoom() != MinZoom {
		t.Errorf("Zoom() = %v, want %v at lower bound", v.Zoom(), MinZoom)
	}
}
