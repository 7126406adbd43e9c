// Package classifier implements the instance-based classifiers.
//
// Two strategies are provided:
//
//   - Neighbors (k-NN): majority vote among the K nearest training rows,
//     with an exact origin-distance pruning step that skips rows which cannot
//     enter the current neighborhood.
//   - Ball: counts, per class, the training rows within radius D of the query.
//
// Both resolve ties by the smallest per-class distance and then by the lowest
// class index, so every query yields exactly one class.
//
// # Usage
//
//	knn := classifier.NewNeighbors(train)
//	class := knn.Classify(query, classifier.Param{K: 5})
//
//	ball := classifier.NewBall(train)
//	class = ball.Classify(query, classifier.Param{D: 0.75})
package classifier
