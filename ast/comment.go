package ast

import "github.com/sqlweave/sqlweave/token"

// CommentPosition indicates whether a comment attaches before or after
// the node it is associated with.
type CommentPosition int

const (
	CommentBefore CommentPosition = iota
	CommentAfter
)

// Comment is a single attached comment, positioned relative to its owning
// node. This is the sole comment model carried by the AST: there is no
// separate legacy comment list.
type Comment struct {
	Pos      token.Pos
	Text     string
	Position CommentPosition
}

// Commented is implemented by nodes that can carry positioned comments.
// Not every node kind carries comments: SelectStmt, InsertStmt,
// UpdateStmt, DeleteStmt and MergeStmt embed CommentedNode to satisfy this
// interface; clause and expression nodes do not.
type Commented interface {
	PositionedComments() []Comment
	AddComment(c Comment)
}

// CommentedNode is embedded by AST node types that attach comments.
type CommentedNode struct {
	Comments []Comment
}

// PositionedComments returns the comments attached to this node, in
// encounter order.
func (c *CommentedNode) PositionedComments() []Comment {
	return c.Comments
}

// AddComment appends a comment to this node.
func (c *CommentedNode) AddComment(comment Comment) {
	c.Comments = append(c.Comments, comment)
}
