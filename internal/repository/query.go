package repository

import (
	"gorm.io/gorm"
)

// Query 延迟执行的查询：链式追加条件，直到 Find/First/Count 才访问数据库。
// 每次追加都返回新的 Query，原查询可继续复用。
type Query[T any] struct {
	db *gorm.DB
}

func newQuery[T any](db *gorm.DB) *Query[T] {
	return &Query[T]{db: db.Session(&gorm.Session{})}
}

// Where 追加过滤条件；联表查询里请带表名限定列
func (q *Query[T]) Where(query interface{}, args ...interface{}) *Query[T] {
	return newQuery[T](q.db.Where(query, args...))
}

func (q *Query[T]) Limit(n int) *Query[T] { return newQuery[T](q.db.Limit(n)) }

func (q *Query[T]) Offset(n int) *Query[T] { return newQuery[T](q.db.Offset(n)) }

// Find 执行查询，保持生产方设定的排序
func (q *Query[T]) Find() ([]T, error) {
	out := make([]T, 0)
	if err := q.db.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// First 取第一条；没有结果时返回 gorm.ErrRecordNotFound
func (q *Query[T]) First() (*T, error) {
	rows, err := q.Limit(1).Find()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (q *Query[T]) Count() (int64, error) {
	var n int64
	err := q.db.Count(&n).Error
	return n, err
}
