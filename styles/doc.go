// 版权所有 2025 Autonomous Marketing Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// 包 styles 管理风格包：每个风格是一个候选参考图目录，按外部媒体
// 分析协作者的得分排序，取排名靠前的图像作为关键帧生成的参考条件。
// 像素分析本身不在本包职责内，FrameScorer 是黑盒契约。
package styles
