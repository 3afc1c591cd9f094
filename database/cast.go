package database

// Pair holds the first two columns of a row.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Triple holds the first three columns of a row.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Scalar is a Parser reading column 0 as T.
//
//	names := database.SelectData(ctx, w, "SELECT name FROM users", database.Scalar[string])
func Scalar[T any](row Row) (T, error) {
	return GetByIndex[T](row, 0)
}

// PairOf is a Parser reading columns 0 and 1.
func PairOf[A, B any](row Row) (Pair[A, B], error) {
	var p Pair[A, B]
	var err error

	if p.First, err = GetByIndex[A](row, 0); err != nil {
		return p, err
	}
	if p.Second, err = GetByIndex[B](row, 1); err != nil {
		return p, err
	}
	return p, nil
}

// TripleOf is a Parser reading columns 0, 1 and 2.
func TripleOf[A, B, C any](row Row) (Triple[A, B, C], error) {
	var t Triple[A, B, C]
	var err error

	if t.First, err = GetByIndex[A](row, 0); err != nil {
		return t, err
	}
	if t.Second, err = GetByIndex[B](row, 1); err != nil {
		return t, err
	}
	if t.Third, err = GetByIndex[C](row, 2); err != nil {
		return t, err
	}
	return t, nil
}
