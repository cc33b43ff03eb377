/*
go-vidbatch prepares training and inference batches for video object
detection models that aggregate features across neighbouring frames.

It orders a dataset of video segments so frames of one clip stay together,
shards the ordered dataset across workers while each worker keeps a
continuous read position, resolves the previous frames every worker needs
for flow-guided aggregation, pads and stacks variably sized samples into
uniform tensors and assigns anchor classification and regression targets
against ground truth boxes.

Image decoding and the feature network are collaborators supplied by the
caller, see the codec subpackage for pure Go decoders, codec/opencv for the
OpenCV decoder and the anchor subpackage for the target assignment engine.
*/
package vidbatch
